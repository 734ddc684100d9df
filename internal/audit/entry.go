// Package audit is an append-only JSONL action log with SHA-256 hash
// chaining. Each entry's prev_hash is the hash of the previous line,
// forming a tamper-evident chain.
package audit

// Event classifies what happened to an action.
type Event string

const (
	// Execution outcomes, recorded at standard level and above.
	EventExecuted Event = "executed"
	EventFailed   Event = "failed"
	EventDenied   Event = "denied"
	EventBlocked  Event = "blocked"

	// Detail events, recorded only at verbose (strict) level.
	EventDetected         Event = "detected"
	EventConfirmRequested Event = "confirm_requested"
	EventPolicyReloaded   Event = "policy_reloaded"
)

// DetailEvent reports whether the event is verbose-only.
func (e Event) DetailEvent() bool {
	switch e {
	case EventDetected, EventConfirmRequested, EventPolicyReloaded:
		return true
	}
	return false
}

// Entry is one audit log line. Timestamp and PrevHash are filled in by
// Log.Record.
type Entry struct {
	Timestamp  string `json:"ts"`
	PrevHash   string `json:"prev_hash"`
	TurnID     string `json:"turn_id,omitempty"`
	Event      Event  `json:"event"`
	Kind       string `json:"kind,omitempty"`
	Path       string `json:"path,omitempty"`
	Command    string `json:"command,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Detail     string `json:"detail,omitempty"`
	PolicyHash string `json:"policy_hash,omitempty"`
}
