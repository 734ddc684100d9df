// Package validate converts detected intents into fully-typed actions.
// Validation is exhaustive over the closed kind set; a rejected intent
// never reaches the executor.
package validate

import (
	"strings"

	"chatpilot/internal/model"
	"chatpilot/internal/pathpolicy"
)

// Validator checks required fields per kind and normalizes paths against
// the workspace root through pathpolicy.
type Validator struct {
	workspaceRoot string
}

// New creates a Validator bound to a workspace root.
func New(workspaceRoot string) *Validator {
	return &Validator{workspaceRoot: workspaceRoot}
}

// Validate returns the typed Action for an intent, or a
// *model.ValidationError describing the rejection.
func (v *Validator) Validate(intent *model.Intent) (*model.Action, error) {
	if intent == nil {
		return nil, &model.ValidationError{Reason: model.RejectMissingField, Detail: "no intent"}
	}

	switch intent.Kind {
	case model.KindCreateFile, model.KindEditFile:
		return v.fileWrite(intent, intent.Kind)

	case model.KindImplicitCode:
		// A bare code block degrades to a create suggestion. Implicit
		// confidence guarantees the executor asks before any write.
		return v.fileWrite(intent, model.KindCreateFile)

	case model.KindAnalyzeFile:
		path, err := v.requirePath(intent)
		if err != nil {
			return nil, err
		}
		return &model.Action{
			Kind:        model.KindAnalyzeFile,
			Path:        path,
			Description: intent.RawParams["description"],
		}, nil

	case model.KindRunProject:
		cmd := strings.TrimSpace(intent.RawParams["command"])
		if cmd == "" {
			return nil, &model.ValidationError{
				Reason: model.RejectMissingField,
				Field:  "command",
				Detail: "is required for run_project",
			}
		}
		return &model.Action{
			Kind:        model.KindRunProject,
			Command:     cmd,
			Description: intent.RawParams["description"],
		}, nil

	default:
		return nil, &model.ValidationError{
			Reason: model.RejectUnknownKind,
			Detail: "no such action kind: " + string(intent.Kind),
		}
	}
}

func (v *Validator) fileWrite(intent *model.Intent, kind model.Kind) (*model.Action, error) {
	path, err := v.requirePath(intent)
	if err != nil {
		return nil, err
	}

	// Content may be the empty string, but the key must be present.
	content, ok := intent.RawParams["content"]
	if !ok {
		return nil, &model.ValidationError{
			Reason: model.RejectMissingField,
			Field:  "content",
			Detail: "is required for " + string(kind),
		}
	}

	return &model.Action{
		Kind:        kind,
		Path:        path,
		Content:     content,
		HasContent:  true,
		Description: intent.RawParams["description"],
	}, nil
}

func (v *Validator) requirePath(intent *model.Intent) (string, error) {
	raw, ok := intent.RawParams["path"]
	if !ok || strings.TrimSpace(raw) == "" {
		return "", &model.ValidationError{
			Reason: model.RejectMissingField,
			Field:  "path",
			Detail: "is required",
		}
	}

	normalized, err := pathpolicy.Normalize(raw, v.workspaceRoot)
	if err != nil {
		return "", &model.ValidationError{
			Reason: model.RejectUnsafePath,
			Field:  "path",
			Detail: err.Error(),
		}
	}
	return normalized, nil
}
