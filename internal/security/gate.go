package security

import (
	"sync"
	"time"

	"chatpilot/internal/audit"
	"chatpilot/internal/model"
	"chatpilot/internal/ratelimit"
	"chatpilot/internal/sanitize"
)

// Gate derives per-operation decisions from the active policy. All
// decisions are pure functions of the current policy plus, for rate
// checks, the shared window state. The gate owns that state: increments
// are serialized under its lock so overlapping turns cannot under-count.
type Gate struct {
	mu     sync.Mutex
	policy *Policy
	rate   *ratelimit.State
	log    *audit.Log
	now    func() time.Time
}

// NewGate creates a Gate around the given policy. The policy object is
// shared by reference; replace it with UpdatePolicy, never by mutation.
func NewGate(p *Policy) *Gate {
	if p == nil {
		p = DefaultPolicy()
	}
	return &Gate{
		policy: p,
		rate:   ratelimit.NewState(),
		now:    time.Now,
	}
}

// SetAuditLog attaches an audit log. Nil detaches it.
func (g *Gate) SetAuditLog(l *audit.Log) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = l
}

// UpdatePolicy replaces the active policy wholesale. Triggered by
// settings-change events; turns already past their rate check keep the
// snapshot they took.
func (g *Gate) UpdatePolicy(p *Policy) {
	if p == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policy = p
}

// Snapshot returns a copy of the current policy. A turn takes its
// snapshot at the rate-check step and uses it for the rest of the turn;
// policy changes are never applied retroactively mid-turn.
func (g *Gate) Snapshot() Policy {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.policy
}

// ShouldRateLimit reports whether rate checking applies to the key under
// the current policy.
func (g *Gate) ShouldRateLimit(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policy.RateLimitOn() && g.policy.RateLimit.Enabled() && key != ""
}

// CheckRate performs one rate check for key: allowed calls are counted,
// blocked calls are not. At the disabled level every call is allowed.
func (g *Gate) CheckRate(key string) ratelimit.Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.policy.RateLimitOn() {
		return ratelimit.Result{Key: key}
	}
	return ratelimit.Evaluate(g.rate, key, g.policy.RateLimit, g.now().UTC())
}

// ShouldSanitizeInput reports whether input sanitization applies.
func (g *Gate) ShouldSanitizeInput(text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return text != "" && g.policy.SanitizeMode() != sanitize.ModeOff
}

// Sanitize cleans text according to the current policy's mode.
func (g *Gate) Sanitize(text string) string {
	g.mu.Lock()
	mode := g.policy.SanitizeMode()
	g.mu.Unlock()
	return sanitize.Sanitize(text, mode)
}

// RequiresConfirmation applies the current policy to an action; see
// Policy.RequiresConfirmation for the level table.
func (g *Gate) RequiresConfirmation(action *model.Action, conf model.Confidence) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policy.RequiresConfirmation(action, conf)
}

// Audit records an event if the current policy audits and a log is
// attached. Detection and confirmation events are only recorded at
// verbose (strict) level.
func (g *Gate) Audit(e audit.Entry) {
	g.mu.Lock()
	p := g.policy
	log := g.log
	g.mu.Unlock()

	if log == nil || !p.AuditOn() {
		return
	}
	if e.Event.DetailEvent() && !p.AuditVerbose() {
		return
	}
	// Audit failures never fail the turn.
	_ = log.Record(e)
}

// RequiresConfirmation implements the level table:
//
//	disabled: never
//	minimal:  implicit-confidence actions only
//	standard: all mutating actions
//	strict:   all mutating actions
//
// Implicit confidence always confirms, regardless of level: implicit
// detection is a guess and must never silently mutate the workspace.
func (p *Policy) RequiresConfirmation(action *model.Action, conf model.Confidence) bool {
	if conf == model.ConfImplicit {
		return true
	}
	if !p.Level.AtLeast(LevelStandard) {
		return false
	}
	return action != nil && action.Kind.Mutating()
}

// VetoDangerous reports whether the strict-level veto blocks a command.
// Independent of AllowDangerousCommands: at strict, classified-dangerous
// commands are refused even when command execution is otherwise enabled.
func (p *Policy) VetoDangerous(cmd string) bool {
	return p.Level.AtLeast(LevelStrict) && IsDangerousCommand(cmd)
}
