// Package compose merges an execution outcome with the model's residual
// prose into the single message shown to the user.
package compose

import (
	"strings"

	"chatpilot/internal/model"
)

// Compose builds the displayed text for a turn. span is the region of
// modelText the detector consumed; it is removed so the same code is not
// shown twice. A nil result means no action was detected and the model
// text passes through verbatim.
func Compose(modelText string, span model.Span, result *model.ExecutionResult) string {
	if result == nil {
		return modelText
	}

	residual := modelText
	if !span.Empty() && span.Start >= 0 && span.End <= len(modelText) {
		residual = modelText[:span.Start] + modelText[span.End:]
	}
	residual = tidy(residual)

	status := statusLine(result)
	if residual == "" {
		return status
	}
	return status + "\n\n" + residual
}

func statusLine(result *model.ExecutionResult) string {
	switch result.Outcome {
	case model.OutcomeCompleted:
		return "✅ " + result.Summary
	case model.OutcomeCancelled:
		return "⏸ " + result.Summary
	default:
		reason := result.Summary
		if result.Err != nil {
			reason = result.Err.Error()
		}
		return "❌ failed: " + reason
	}
}

// tidy trims the hole left by span removal: outer whitespace and runs of
// blank lines collapse, the prose itself is untouched.
func tidy(s string) string {
	s = strings.TrimSpace(s)
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
