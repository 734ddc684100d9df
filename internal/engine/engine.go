// Package engine processes conversational turns end to end: detection,
// validation, security gating, execution, and composition. One turn is
// synchronous with respect to itself; the shared rate window is the only
// state that crosses turns.
package engine

import (
	"context"

	"go.uber.org/zap"

	"chatpilot/internal/audit"
	"chatpilot/internal/compose"
	"chatpilot/internal/detect"
	"chatpilot/internal/executor"
	"chatpilot/internal/model"
	"chatpilot/internal/security"
	"chatpilot/internal/validate"
	"chatpilot/internal/workspace"
)

// TurnResult is everything the serving surface needs to render a turn.
type TurnResult struct {
	TurnID      string
	DisplayText string
	// Action and Result are nil when the turn was plain conversation.
	Action *model.Action
	Result *model.ExecutionResult
	// Suggestion marks an implicit candidate that failed validation:
	// nothing ran, but the caller may surface a low-visibility notice.
	Suggestion bool
}

// Engine wires the action pipeline around a workspace.
type Engine struct {
	detector  *detect.Detector
	validator *validate.Validator
	gate      *security.Gate
	executor  *executor.Executor
	log       *zap.Logger
}

// New builds an engine for a workspace root. analyzer may be nil; log may
// be nil for a no-op logger.
func New(ws workspace.Workspace, gate *security.Gate, analyzer executor.Analyzer, workspaceRoot string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		detector:  detect.New(),
		validator: validate.New(workspaceRoot),
		gate:      gate,
		executor:  executor.New(ws, gate, analyzer),
		log:       log,
	}
}

// Executor exposes the underlying executor, mainly for transition hooks.
func (e *Engine) Executor() *executor.Executor { return e.executor }

// SanitizeInput cleans user text before it is sent to the model, per the
// active policy. Returns the input unchanged when sanitization is off.
func (e *Engine) SanitizeInput(text string) string {
	if !e.gate.ShouldSanitizeInput(text) {
		return text
	}
	return e.gate.Sanitize(text)
}

// ProcessTurn runs one finalized model response through the pipeline.
// Detection never runs on partial streams; callers finalize first.
func (e *Engine) ProcessTurn(ctx context.Context, turn model.RawTurn) TurnResult {
	turnID := model.NewTurnID()

	intent := e.detector.Detect(turn.ModelText)
	if intent == nil {
		return TurnResult{TurnID: turnID, DisplayText: turn.ModelText}
	}

	e.gate.Audit(auditDetected(turnID, intent))
	e.log.Debug("action intent detected",
		zap.String("turn_id", turnID),
		zap.String("kind", string(intent.Kind)),
		zap.String("confidence", string(intent.Confidence)))

	action, err := e.validator.Validate(intent)
	if err != nil {
		// Validation failures degrade to plain conversation. Implicit
		// candidates are additionally flagged as suggestions.
		e.log.Debug("intent rejected",
			zap.String("turn_id", turnID),
			zap.Error(err))
		return TurnResult{
			TurnID:      turnID,
			DisplayText: turn.ModelText,
			Suggestion:  intent.Confidence == model.ConfImplicit,
		}
	}

	result := e.executor.Execute(ctx, turnID, action, intent.Confidence)
	display := compose.Compose(turn.ModelText, intent.Source, &result)

	e.log.Info("turn processed",
		zap.String("turn_id", turnID),
		zap.String("kind", string(action.Kind)),
		zap.String("outcome", string(result.Outcome)))

	return TurnResult{
		TurnID:      turnID,
		DisplayText: display,
		Action:      action,
		Result:      &result,
	}
}

func auditDetected(turnID string, intent *model.Intent) audit.Entry {
	return audit.Entry{
		TurnID:     turnID,
		Event:      audit.EventDetected,
		Kind:       string(intent.Kind),
		Path:       intent.RawParams["path"],
		Confidence: string(intent.Confidence),
	}
}
