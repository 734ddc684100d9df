package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"chatpilot/internal/model"
	"chatpilot/internal/ratelimit"
	"chatpilot/internal/security"
)

type stubWorkspace struct {
	files         map[string]string
	confirmAnswer bool
	diffAnswer    bool
	prompts       []string
}

func newStubWorkspace() *stubWorkspace {
	return &stubWorkspace{files: map[string]string{}, confirmAnswer: true, diffAnswer: true}
}

func (s *stubWorkspace) ReadFile(path string) (string, error) {
	content, ok := s.files[path]
	if !ok {
		return "", &model.IOError{Op: "read", Path: path, Err: errNotFound}
	}
	return content, nil
}

func (s *stubWorkspace) WriteFile(path, content string) error {
	s.files[path] = content
	return nil
}

func (s *stubWorkspace) Exists(path string) bool { _, ok := s.files[path]; return ok }

func (s *stubWorkspace) ShowDiff(path, before, after string) (bool, error) {
	return s.diffAnswer, nil
}

func (s *stubWorkspace) OpenDocument(path string) error { return nil }

func (s *stubWorkspace) Confirm(prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	return s.confirmAnswer, nil
}

func (s *stubWorkspace) RunCommand(ctx context.Context, command string) (string, error) {
	return "", nil
}

var errNotFound = errNotFoundType{}

type errNotFoundType struct{}

func (errNotFoundType) Error() string { return "file does not exist" }

func newEngine(ws *stubWorkspace, p *security.Policy) *Engine {
	return New(ws, security.NewGate(p), nil, "/work", nil)
}

// --- scenario tests ---

func TestExplicitCreatePayloadExecutes(t *testing.T) {
	ws := newStubWorkspace()
	e := newEngine(ws, &security.Policy{Level: security.LevelStandard})

	modelText := "I'll create that for you.\n" +
		"```json\n" +
		`{"action":"create_file","params":{"path":"hello.js","content":"console.log('hi')"}}` +
		"\n```\n" +
		"Run it with node."

	out := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})

	if out.Result == nil || out.Result.Outcome != model.OutcomeCompleted {
		t.Fatalf("turn did not complete: %+v", out.Result)
	}
	if ws.files["hello.js"] != "console.log('hi')" {
		t.Error("file not written")
	}
	if !strings.Contains(out.DisplayText, "Created file: hello.js") {
		t.Errorf("display missing summary:\n%s", out.DisplayText)
	}
	if strings.Contains(out.DisplayText, "```json") {
		t.Errorf("consumed payload re-embedded:\n%s", out.DisplayText)
	}
	if !strings.Contains(out.DisplayText, "Run it with node.") {
		t.Errorf("residual prose dropped:\n%s", out.DisplayText)
	}
}

func TestExplicitCreateWithMidLineFenceOpener(t *testing.T) {
	ws := newStubWorkspace()
	e := newEngine(ws, &security.Policy{Level: security.LevelStandard})

	modelText := "I'll create... ```json\n" +
		`{"action":"create_file","params":{"path":"hello.js","content":"console.log('hi')"}}` +
		"\n```"

	out := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})

	if out.Result == nil || out.Result.Outcome != model.OutcomeCompleted {
		t.Fatalf("turn did not complete: %+v", out.Result)
	}
	if ws.files["hello.js"] != "console.log('hi')" {
		t.Error("file not written")
	}
	if !strings.Contains(out.DisplayText, "Created file: hello.js") {
		t.Errorf("display missing summary:\n%s", out.DisplayText)
	}
}

func TestBareCodeBlockNeedsConfirmationAndDenialCancels(t *testing.T) {
	ws := newStubWorkspace()
	ws.confirmAnswer = false
	e := newEngine(ws, &security.Policy{Level: security.LevelDisabled})

	modelText := "Here is an example:\n```js\nconsole.log('hi')\n```\n"
	out := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})

	if out.Result == nil || out.Result.Outcome != model.OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %+v", out.Result)
	}
	if len(ws.prompts) != 1 {
		t.Fatalf("implicit candidate should prompt exactly once, got %d", len(ws.prompts))
	}
	if len(ws.files) != 0 {
		t.Error("denied implicit action must not write")
	}
	if !strings.Contains(out.DisplayText, "⏸") {
		t.Errorf("display should carry the neutral marker:\n%s", out.DisplayText)
	}
}

func TestTraversalPathDegradesToPlainText(t *testing.T) {
	ws := newStubWorkspace()
	e := newEngine(ws, &security.Policy{Level: security.LevelStandard})

	modelText := "```json\n" +
		`{"action":"create_file","params":{"path":"../secret","content":"x"}}` +
		"\n```\n"
	out := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})

	if out.Action != nil || out.Result != nil {
		t.Fatalf("unsafe path should not produce an action: %+v", out)
	}
	if out.DisplayText != modelText {
		t.Errorf("turn should degrade to verbatim text:\n%s", out.DisplayText)
	}
	if len(ws.files) != 0 {
		t.Error("no write may occur")
	}
}

func TestSecondTurnWithinWindowIsRateLimited(t *testing.T) {
	ws := newStubWorkspace()
	e := newEngine(ws, &security.Policy{
		Level:     security.LevelMinimal,
		RateLimit: ratelimit.Limit{MaxRequests: 1, Window: time.Minute},
	})

	modelText := "```json\n" +
		`{"action":"create_file","params":{"path":"a.js","content":"1"}}` +
		"\n```\n"

	first := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})
	if first.Result == nil || first.Result.Outcome != model.OutcomeCompleted {
		t.Fatalf("first turn should complete: %+v", first.Result)
	}

	second := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: modelText})
	if second.Result == nil || second.Result.Outcome != model.OutcomeFailed {
		t.Fatalf("second turn should fail: %+v", second.Result)
	}
	if !strings.Contains(second.DisplayText, "try again shortly") {
		t.Errorf("rate limit not surfaced:\n%s", second.DisplayText)
	}
}

// --- degradation tests ---

func TestPlainConversationPassesThrough(t *testing.T) {
	e := newEngine(newStubWorkspace(), &security.Policy{Level: security.LevelStandard})
	text := "The capital of France is Paris."
	out := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: text})
	if out.DisplayText != text {
		t.Errorf("got %q", out.DisplayText)
	}
	if out.Action != nil {
		t.Error("plain text should yield no action")
	}
}

func TestTurnIDsAreUnique(t *testing.T) {
	e := newEngine(newStubWorkspace(), &security.Policy{Level: security.LevelDisabled})
	a := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: "hi"})
	b := e.ProcessTurn(context.Background(), model.RawTurn{ModelText: "hi"})
	if a.TurnID == b.TurnID || a.TurnID == "" {
		t.Errorf("turn IDs: %q, %q", a.TurnID, b.TurnID)
	}
}

func TestSanitizeInputMasksCredentialsAtStandard(t *testing.T) {
	e := newEngine(newStubWorkspace(), &security.Policy{Level: security.LevelStandard})
	out := e.SanitizeInput("my password=hunter2 please")
	if strings.Contains(out, "hunter2") {
		t.Errorf("credential not masked: %q", out)
	}
}
