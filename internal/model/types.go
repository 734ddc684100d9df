package model

// Kind identifies what an action does to the workspace.
type Kind string

const (
	KindCreateFile  Kind = "create_file"
	KindEditFile    Kind = "edit_file"
	KindAnalyzeFile Kind = "analyze_file"
	KindRunProject  Kind = "run_project"

	// KindImplicitCode marks a bare fenced code block surfaced as a
	// low-confidence suggestion. Intent-only: validation maps it to a
	// create_file action that always requires confirmation.
	KindImplicitCode Kind = "implicit_code"
)

// KnownKinds is the closed set of action kinds. Anything else is rejected
// at validation, never executed.
var KnownKinds = map[Kind]bool{
	KindCreateFile:  true,
	KindEditFile:    true,
	KindAnalyzeFile: true,
	KindRunProject:  true,
}

// Mutating reports whether the kind writes to the workspace.
func (k Kind) Mutating() bool {
	switch k {
	case KindCreateFile, KindEditFile, KindRunProject:
		return true
	}
	return false
}

// Confidence is the detector's certainty tier. It governs how aggressively
// an action may be auto-executed.
type Confidence string

const (
	// ConfExplicit: a well-formed structured payload named the action.
	ConfExplicit Confidence = "explicit"
	// ConfInferred: natural-language phrasing plus a code block.
	ConfInferred Confidence = "inferred"
	// ConfImplicit: a bare code block. Never executed without confirmation.
	ConfImplicit Confidence = "implicit"
)

// ConfRank orders confidence tiers, highest certainty first.
var ConfRank = map[Confidence]int{
	ConfExplicit: 0,
	ConfInferred: 1,
	ConfImplicit: 2,
}

// Span marks a half-open [Start, End) byte range in the model text that a
// detection strategy consumed.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool { return s.End <= s.Start }

// RawTurn is one conversational exchange. Created per turn, discarded after
// composition.
type RawTurn struct {
	UserText  string
	ModelText string
}

// Intent is a detected-but-unvalidated action candidate. At most one
// survives per turn.
type Intent struct {
	Kind       Kind
	RawParams  map[string]string
	Source     Span
	Confidence Confidence
}

// Action is a validated, typed instruction against the workspace.
// Path is always workspace-relative and traversal-free. An empty Content
// string is legal for create/edit; HasContent distinguishes "empty" from
// "absent".
type Action struct {
	Kind        Kind
	Path        string
	Content     string
	HasContent  bool
	Description string
	// Command is set only for run_project actions.
	Command string
}

// Outcome classifies how an execution ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// ExecutionResult is what the executor hands to the composer.
type ExecutionResult struct {
	Outcome Outcome
	Summary string
	Err     error
}
