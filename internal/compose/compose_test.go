package compose

import (
	"errors"
	"strings"
	"testing"

	"chatpilot/internal/model"
)

// --- compose tests ---

func TestNoActionPassesThroughVerbatim(t *testing.T) {
	text := "Just some chat.\n\nWith two paragraphs.\n"
	if got := Compose(text, model.Span{}, nil); got != text {
		t.Errorf("got %q, want verbatim", got)
	}
}

func TestCompletedResultRemovesConsumedSpan(t *testing.T) {
	text := "I'll create the file.\n```json\n{\"action\":\"create_file\"}\n```\nDone explaining."
	span := model.Span{
		Start: strings.Index(text, "```json"),
		End:   strings.Index(text, "Done"),
	}
	result := &model.ExecutionResult{Outcome: model.OutcomeCompleted, Summary: "Created file: hello.js"}

	got := Compose(text, span, result)

	if !strings.HasPrefix(got, "✅ Created file: hello.js") {
		t.Errorf("missing status line:\n%s", got)
	}
	if strings.Contains(got, "```json") {
		t.Errorf("consumed code block re-embedded:\n%s", got)
	}
	if !strings.Contains(got, "I'll create the file.") {
		t.Errorf("residual prose dropped:\n%s", got)
	}
	if !strings.Contains(got, "Done explaining.") {
		t.Errorf("trailing prose dropped:\n%s", got)
	}
}

func TestCancelledResultUsesNeutralMarker(t *testing.T) {
	result := &model.ExecutionResult{Outcome: model.OutcomeCancelled, Summary: "No changes made to a.go"}
	got := Compose("```go\nx\n```", model.Span{Start: 0, End: 11}, result)

	if !strings.HasPrefix(got, "⏸ No changes made to a.go") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "❌") {
		t.Error("cancellation must not look like an error")
	}
}

func TestFailedResultCarriesReason(t *testing.T) {
	result := &model.ExecutionResult{
		Outcome: model.OutcomeFailed,
		Summary: "whatever",
		Err:     errors.New("rate limit exceeded for chat_messages: 2/1 in window, try again shortly"),
	}
	got := Compose("text", model.Span{Start: 0, End: 4}, result)

	if !strings.HasPrefix(got, "❌ failed: rate limit exceeded") {
		t.Errorf("got %q", got)
	}
}

func TestSpanRemovalLeavesNoBlankGap(t *testing.T) {
	text := "Before.\n\n```js\ncode\n```\n\nAfter."
	span := model.Span{
		Start: strings.Index(text, "```js"),
		End:   strings.Index(text, "After."),
	}
	result := &model.ExecutionResult{Outcome: model.OutcomeCompleted, Summary: "Created file: snippet.js"}

	got := Compose(text, span, result)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank gap left behind:\n%q", got)
	}
}

func TestStatusOnlyWhenSpanCoversWholeText(t *testing.T) {
	text := "```js\ncode\n```"
	result := &model.ExecutionResult{Outcome: model.OutcomeCompleted, Summary: "Created file: snippet.js"}
	got := Compose(text, model.Span{Start: 0, End: len(text)}, result)
	if got != "✅ Created file: snippet.js" {
		t.Errorf("got %q", got)
	}
}
