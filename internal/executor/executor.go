// Package executor drives a validated action through its state machine:
// rate check, confirmation, execution against the workspace. Every path
// out of the machine produces an ExecutionResult; nothing here is fatal
// to the surrounding conversation.
package executor

import (
	"context"
	"fmt"
	"strings"

	"chatpilot/internal/audit"
	"chatpilot/internal/model"
	"chatpilot/internal/security"
	"chatpilot/internal/workspace"
)

// RateKey is the shared fixed-window key for conversational actions.
const RateKey = "chat_messages"

const previewLen = 120

// State names a position in the per-action state machine.
type State string

const (
	StateDetected            State = "detected"
	StateValidated           State = "validated"
	StateRateChecked         State = "rate_checked"
	StateConfirmationPending State = "confirmation_pending"
	StateConfirmed           State = "confirmed"
	StateDenied              State = "denied"
	StateExecuting           State = "executing"
	StateCompleted           State = "completed"
	StateFailed              State = "failed"
)

// Analyzer receives file content for analyze_file actions. The report is
// included in the composed response.
type Analyzer interface {
	Analyze(ctx context.Context, path, content string) (string, error)
}

// Executor runs actions against a workspace under the security gate.
type Executor struct {
	ws       workspace.Workspace
	gate     *security.Gate
	analyzer Analyzer

	// OnTransition, when set, observes every state change. Test hook and
	// trace feed; never affects behavior.
	OnTransition func(State)
}

// New creates an executor. analyzer may be nil; analyze_file actions then
// report content length only.
func New(ws workspace.Workspace, gate *security.Gate, analyzer Analyzer) *Executor {
	return &Executor{ws: ws, gate: gate, analyzer: analyzer}
}

func (e *Executor) enter(s State) {
	if e.OnTransition != nil {
		e.OnTransition(s)
	}
}

// Execute drives one action to a terminal state. conf is the detector's
// confidence for the intent the action came from; turnID stamps audit
// entries.
func (e *Executor) Execute(ctx context.Context, turnID string, action *model.Action, conf model.Confidence) model.ExecutionResult {
	e.enter(StateValidated)

	// Rate check. Blocked is a terminal failure, not an error condition
	// of the conversation.
	e.enter(StateRateChecked)
	if e.gate.ShouldRateLimit(RateKey) {
		if r := e.gate.CheckRate(RateKey); r.Blocked {
			err := &model.RateLimitedError{Key: r.Key, Current: r.Current, Limit: r.Limit}
			e.audit(turnID, audit.EventBlocked, action, conf, model.OutcomeFailed, err.Error())
			e.enter(StateFailed)
			return model.ExecutionResult{
				Outcome: model.OutcomeFailed,
				Summary: "Rate limited, try again shortly",
				Err:     err,
			}
		}
	}

	// A turn past its rate check keeps this snapshot; later policy
	// changes do not apply retroactively.
	policy := e.gate.Snapshot()

	// create_file on an existing target is a confirmed edit. Never a
	// silent overwrite, at any level.
	kind := action.Kind
	overwrite := false
	if kind == model.KindCreateFile && e.ws.Exists(action.Path) {
		kind = model.KindEditFile
		overwrite = true
	}

	needConfirm := policy.RequiresConfirmation(action, conf) || overwrite
	if needConfirm {
		e.enter(StateConfirmationPending)
		e.audit(turnID, audit.EventConfirmRequested, action, conf, "", "")

		ok, err := e.ws.Confirm(confirmPrompt(kind, action, overwrite))
		if err != nil {
			return e.fail(turnID, action, conf, &model.IOError{Op: "confirm", Path: action.Path, Err: err})
		}
		if !ok {
			e.enter(StateDenied)
			e.audit(turnID, audit.EventDenied, action, conf, model.OutcomeCancelled, "")
			return model.ExecutionResult{
				Outcome: model.OutcomeCancelled,
				Summary: cancelSummary(kind, action),
			}
		}
		e.enter(StateConfirmed)
	}

	e.enter(StateExecuting)
	var result model.ExecutionResult
	switch kind {
	case model.KindCreateFile:
		result = e.createFile(turnID, action, conf)
	case model.KindEditFile:
		result = e.editFile(turnID, action, conf)
	case model.KindAnalyzeFile:
		result = e.analyzeFile(ctx, turnID, action, conf)
	case model.KindRunProject:
		result = e.runProject(ctx, turnID, action, conf, &policy)
	default:
		result = e.fail(turnID, action, conf, &model.ValidationError{
			Reason: model.RejectUnknownKind,
			Detail: string(kind),
		})
	}

	switch result.Outcome {
	case model.OutcomeCompleted:
		e.enter(StateCompleted)
	case model.OutcomeFailed:
		e.enter(StateFailed)
	}
	return result
}

func (e *Executor) createFile(turnID string, action *model.Action, conf model.Confidence) model.ExecutionResult {
	if err := e.ws.WriteFile(action.Path, action.Content); err != nil {
		return e.fail(turnID, action, conf, err)
	}
	// Best effort: a write that cannot be surfaced is still a write.
	_ = e.ws.OpenDocument(action.Path)
	return e.complete(turnID, action, conf, fmt.Sprintf("Created file: %s", action.Path))
}

// editFile reads the current content and requires the diff to be accepted
// before writing. This is a second, content-level confirmation, distinct
// from the path-level confirmation above.
func (e *Executor) editFile(turnID string, action *model.Action, conf model.Confidence) model.ExecutionResult {
	before, err := e.ws.ReadFile(action.Path)
	if err != nil {
		if !workspace.IsNotFound(err) {
			return e.fail(turnID, action, conf, err)
		}
		before = ""
	}

	accepted, err := e.ws.ShowDiff(action.Path, before, action.Content)
	if err != nil {
		return e.fail(turnID, action, conf, &model.IOError{Op: "diff", Path: action.Path, Err: err})
	}
	if !accepted {
		e.enter(StateDenied)
		e.audit(turnID, audit.EventDenied, action, conf, model.OutcomeCancelled, "diff rejected")
		return model.ExecutionResult{
			Outcome: model.OutcomeCancelled,
			Summary: fmt.Sprintf("Edit of %s cancelled", action.Path),
		}
	}

	if err := e.ws.WriteFile(action.Path, action.Content); err != nil {
		return e.fail(turnID, action, conf, err)
	}
	_ = e.ws.OpenDocument(action.Path)
	return e.complete(turnID, action, conf, fmt.Sprintf("Edited file: %s", action.Path))
}

func (e *Executor) analyzeFile(ctx context.Context, turnID string, action *model.Action, conf model.Confidence) model.ExecutionResult {
	content, err := e.ws.ReadFile(action.Path)
	if err != nil {
		return e.fail(turnID, action, conf, err)
	}

	summary := fmt.Sprintf("Analyzed file: %s", action.Path)
	if e.analyzer != nil {
		report, err := e.analyzer.Analyze(ctx, action.Path, content)
		if err != nil {
			return e.fail(turnID, action, conf, &model.IOError{Op: "analyze", Path: action.Path, Err: err})
		}
		if report != "" {
			summary += "\n" + strings.TrimSpace(report)
		}
	}
	return e.complete(turnID, action, conf, summary)
}

func (e *Executor) runProject(ctx context.Context, turnID string, action *model.Action, conf model.Confidence, policy *security.Policy) model.ExecutionResult {
	if !policy.AllowDangerousCommands {
		return e.fail(turnID, action, conf, &model.ForbiddenError{
			Reason: "command execution is disabled (allow_dangerous_commands: false)",
		})
	}
	if policy.VetoDangerous(action.Command) {
		return e.fail(turnID, action, conf, &model.ForbiddenError{
			Reason: "command blocked at strict level: " + security.DangerReason(action.Command),
		})
	}

	output, err := e.ws.RunCommand(ctx, action.Command)
	if err != nil {
		return e.fail(turnID, action, conf, &model.IOError{Op: "run", Path: "", Err: err})
	}

	summary := fmt.Sprintf("Ran command: %s", action.Command)
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		summary += "\n" + trimmed
	}
	return e.complete(turnID, action, conf, summary)
}

func (e *Executor) complete(turnID string, action *model.Action, conf model.Confidence, summary string) model.ExecutionResult {
	e.audit(turnID, audit.EventExecuted, action, conf, model.OutcomeCompleted, "")
	return model.ExecutionResult{Outcome: model.OutcomeCompleted, Summary: summary}
}

func (e *Executor) fail(turnID string, action *model.Action, conf model.Confidence, err error) model.ExecutionResult {
	e.audit(turnID, audit.EventFailed, action, conf, model.OutcomeFailed, err.Error())
	return model.ExecutionResult{
		Outcome: model.OutcomeFailed,
		Summary: err.Error(),
		Err:     err,
	}
}

func (e *Executor) audit(turnID string, event audit.Event, action *model.Action, conf model.Confidence, outcome model.Outcome, detail string) {
	e.gate.Audit(audit.Entry{
		TurnID:     turnID,
		Event:      event,
		Kind:       string(action.Kind),
		Path:       action.Path,
		Command:    action.Command,
		Confidence: string(conf),
		Outcome:    string(outcome),
		Detail:     detail,
	})
}

func confirmPrompt(kind model.Kind, action *model.Action, overwrite bool) string {
	switch kind {
	case model.KindEditFile:
		if overwrite {
			return fmt.Sprintf("File %s already exists. Overwrite it? (preview: %s)",
				action.Path, preview(action.Content))
		}
		return fmt.Sprintf("Edit file %s? (preview: %s)", action.Path, preview(action.Content))
	case model.KindRunProject:
		return fmt.Sprintf("Run command: %s?", action.Command)
	default:
		return fmt.Sprintf("Create file %s? (preview: %s)", action.Path, preview(action.Content))
	}
}

func cancelSummary(kind model.Kind, action *model.Action) string {
	if kind == model.KindRunProject {
		return fmt.Sprintf("Command not run: %s", action.Command)
	}
	return fmt.Sprintf("No changes made to %s", action.Path)
}

func preview(content string) string {
	flat := strings.ReplaceAll(content, "\n", " ")
	if len(flat) > previewLen {
		return flat[:previewLen] + "..."
	}
	if flat == "" {
		return "empty file"
	}
	return flat
}
