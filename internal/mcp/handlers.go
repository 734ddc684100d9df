package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chatpilot/internal/detect"
	"chatpilot/internal/engine"
	"chatpilot/internal/model"
	"chatpilot/internal/security"
	"chatpilot/internal/validate"
	"chatpilot/internal/workspace"
)

// --- Input/Output types ---

// ProcessInput defines parameters for the chatpilot_process tool.
type ProcessInput struct {
	Text    string `json:"text" jsonschema:"finalized model response text"`
	Approve bool   `json:"approve,omitempty" jsonschema:"answer confirmation prompts with yes"`
}

// ProcessOutput is the composed turn result.
type ProcessOutput struct {
	TurnID      string `json:"turn_id"`
	DisplayText string `json:"display_text"`
	Kind        string `json:"kind,omitempty"`
	Path        string `json:"path,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Suggestion  bool   `json:"suggestion,omitempty"`
}

// DetectInput defines parameters for the chatpilot_detect tool.
type DetectInput struct {
	Text string `json:"text" jsonschema:"finalized model response text"`
}

// DetectOutput describes the detected intent, if any.
type DetectOutput struct {
	Detected   bool   `json:"detected"`
	Kind       string `json:"kind,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Path       string `json:"path,omitempty"`
	Valid      bool   `json:"valid,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// CheckCommandInput defines parameters for the chatpilot_check_command tool.
type CheckCommandInput struct {
	Command string `json:"command" jsonschema:"project command to check"`
}

// CheckCommandOutput is the policy verdict for a command.
type CheckCommandOutput struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// approvingWorkspace answers every confirmation with a fixed verdict.
// MCP calls have no interactive operator; the caller decides up front.
type approvingWorkspace struct {
	*workspace.Local
	approve bool
}

func (w approvingWorkspace) Confirm(prompt string) (bool, error) { return w.approve, nil }

func (w approvingWorkspace) ShowDiff(path, before, after string) (bool, error) {
	return w.approve, nil
}

// --- Handlers ---

func (s *Server) handleProcess(ctx context.Context, req *mcpsdk.CallToolRequest, input ProcessInput) (*mcpsdk.CallToolResult, ProcessOutput, error) {
	ws := approvingWorkspace{
		Local:   workspace.NewLocal(s.root, nil, nil),
		approve: input.Approve,
	}
	eng := engine.New(ws, s.gate, nil, s.root, nil)

	result := eng.ProcessTurn(ctx, model.RawTurn{ModelText: input.Text})

	out := ProcessOutput{
		TurnID:      result.TurnID,
		DisplayText: result.DisplayText,
		Suggestion:  result.Suggestion,
	}
	if result.Action != nil {
		out.Kind = string(result.Action.Kind)
		out.Path = result.Action.Path
		out.Outcome = string(result.Result.Outcome)
	}

	isError := result.Result != nil && result.Result.Outcome == model.OutcomeFailed
	return &mcpsdk.CallToolResult{IsError: isError}, out, nil
}

func (s *Server) handleDetect(ctx context.Context, req *mcpsdk.CallToolRequest, input DetectInput) (*mcpsdk.CallToolResult, DetectOutput, error) {
	intent := detect.New().Detect(input.Text)
	if intent == nil {
		return nil, DetectOutput{Detected: false}, nil
	}

	out := DetectOutput{
		Detected:   true,
		Kind:       string(intent.Kind),
		Confidence: string(intent.Confidence),
	}

	action, err := validate.New(s.root).Validate(intent)
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			out.Reason = vErr.Error()
		} else {
			out.Reason = err.Error()
		}
		return nil, out, nil
	}

	out.Valid = true
	out.Path = action.Path
	return nil, out, nil
}

func (s *Server) handleCheckCommand(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckCommandInput) (*mcpsdk.CallToolResult, CheckCommandOutput, error) {
	policy := s.gate.Snapshot()

	if !policy.AllowDangerousCommands {
		return nil, CheckCommandOutput{
			Allowed: false,
			Reason:  "command execution is disabled (allow_dangerous_commands: false)",
		}, nil
	}
	if policy.VetoDangerous(input.Command) {
		return nil, CheckCommandOutput{
			Allowed: false,
			Reason:  "blocked at strict level: " + security.DangerReason(input.Command),
		}, nil
	}
	return nil, CheckCommandOutput{Allowed: true}, nil
}
