package detect

import (
	"strings"
	"testing"

	"chatpilot/internal/model"
)

// --- Explicit JSON strategy ---

func TestDetectExplicitJSON(t *testing.T) {
	text := "I'll create that for you.\n```json\n{\"action\":\"create_file\",\"params\":{\"path\":\"hello.js\",\"content\":\"console.log('hi')\"}}\n```\nDone."
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.Kind != model.KindCreateFile {
		t.Errorf("expected create_file, got %s", intent.Kind)
	}
	if intent.Confidence != model.ConfExplicit {
		t.Errorf("expected explicit confidence, got %s", intent.Confidence)
	}
	if intent.RawParams["path"] != "hello.js" {
		t.Errorf("expected path hello.js, got %q", intent.RawParams["path"])
	}
	if intent.RawParams["content"] != "console.log('hi')" {
		t.Errorf("unexpected content %q", intent.RawParams["content"])
	}
}

func TestDetectExplicitJSONFenceOpensMidLine(t *testing.T) {
	text := "I'll create... ```json\n{\"action\":\"create_file\",\"params\":{\"path\":\"hello.js\",\"content\":\"console.log('hi')\"}}\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent when the fence opens mid-line")
	}
	if intent.Kind != model.KindCreateFile || intent.Confidence != model.ConfExplicit {
		t.Errorf("unexpected intent %+v", intent)
	}
	if intent.RawParams["path"] != "hello.js" {
		t.Errorf("expected path hello.js, got %q", intent.RawParams["path"])
	}
}

func TestDetectExplicitJSONWhitespaceInsideFence(t *testing.T) {
	text := "```json\n\n  {\"action\":\"analyze_file\",\"params\":{\"path\":\"main.go\"}}  \n\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.Kind != model.KindAnalyzeFile || intent.Confidence != model.ConfExplicit {
		t.Errorf("unexpected intent %+v", intent)
	}
}

func TestDetectMalformedJSONFallsThrough(t *testing.T) {
	// Missing comma: explicit strategy must not raise, it falls through.
	text := "I'll create `app.js`\n```json\n{\"action\":\"create_file\" \"params\":{}}\n```\n```js\nlet x = 1\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected fall-through intent")
	}
	if intent.Confidence != model.ConfInferred {
		t.Errorf("expected inferred confidence after fall-through, got %s", intent.Confidence)
	}
	if intent.RawParams["path"] != "app.js" {
		t.Errorf("expected app.js, got %q", intent.RawParams["path"])
	}
}

func TestDetectUnknownActionNoMatchFromJSON(t *testing.T) {
	text := "```json\n{\"action\":\"delete_everything\",\"params\":{\"path\":\"x\"}}\n```"
	intent := New().Detect(text)
	// The JSON block itself still surfaces as an implicit suggestion, but
	// never as an executable unknown action.
	if intent != nil && intent.Confidence != model.ConfImplicit {
		t.Errorf("unknown action must not produce an executable intent, got %+v", intent)
	}
}

func TestDetectFirstWellFormedJSONWins(t *testing.T) {
	text := "```json\n{broken\n```\n" +
		"```json\n{\"action\":\"edit_file\",\"params\":{\"path\":\"a.go\",\"content\":\"x\"}}\n```\n" +
		"```json\n{\"action\":\"create_file\",\"params\":{\"path\":\"b.go\",\"content\":\"y\"}}\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.Kind != model.KindEditFile || intent.RawParams["path"] != "a.go" {
		t.Errorf("expected first well-formed block to win, got %+v", intent)
	}
}

// --- Phrase strategy ---

func TestDetectPhraseWithCodeBlock(t *testing.T) {
	text := "Let me create a file called `server.py` for you:\n```python\nprint('serving')\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.Kind != model.KindCreateFile || intent.Confidence != model.ConfInferred {
		t.Errorf("unexpected intent %+v", intent)
	}
	if intent.RawParams["path"] != "server.py" {
		t.Errorf("expected server.py, got %q", intent.RawParams["path"])
	}
	if intent.RawParams["content"] != "print('serving')" {
		t.Errorf("unexpected content %q", intent.RawParams["content"])
	}
}

func TestDetectPhraseVariants(t *testing.T) {
	variants := []string{
		"I'll write `x.txt`:\n```\nhi\n```",
		"I will save a file named 'x.txt':\n```\nhi\n```",
		"I'm going to create the file \"x.txt\":\n```\nhi\n```",
	}
	for _, text := range variants {
		intent := New().Detect(text)
		if intent == nil || intent.Confidence != model.ConfInferred {
			t.Errorf("%q: expected inferred intent, got %+v", text, intent)
			continue
		}
		if intent.RawParams["path"] != "x.txt" {
			t.Errorf("%q: expected x.txt, got %q", text, intent.RawParams["path"])
		}
	}
}

func TestDetectPhraseIgnoresBlocksBeforePhrase(t *testing.T) {
	text := "```js\nold\n```\nNow I'll create `fresh.js`:\n```js\nnew\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.RawParams["content"] != "new" {
		t.Errorf("expected the block after the phrase, got %q", intent.RawParams["content"])
	}
}

func TestDetectPhraseWithoutCodeBlockNoAction(t *testing.T) {
	intent := New().Detect("I'll create a file called `config.json` later, when you confirm.")
	if intent != nil {
		t.Errorf("phrase without a code block must not trigger, got %+v", intent)
	}
}

// --- Implicit strategy ---

func TestDetectImplicitCodeBlock(t *testing.T) {
	text := "Here is the idea:\n```javascript\nconsole.log('hi')\n```"
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	if intent.Kind != model.KindImplicitCode {
		t.Errorf("expected implicit_code, got %s", intent.Kind)
	}
	if intent.Confidence != model.ConfImplicit {
		t.Errorf("expected implicit confidence, got %s", intent.Confidence)
	}
	if intent.RawParams["path"] != "snippet.js" {
		t.Errorf("expected snippet.js suggestion, got %q", intent.RawParams["path"])
	}
}

// --- No match ---

func TestDetectPlainConversation(t *testing.T) {
	if intent := New().Detect("Sounds good. What framework do you prefer?"); intent != nil {
		t.Errorf("expected no intent, got %+v", intent)
	}
}

func TestDetectEmptyText(t *testing.T) {
	if intent := New().Detect(""); intent != nil {
		t.Errorf("expected no intent for empty text, got %+v", intent)
	}
}

// --- Span bookkeeping ---

func TestDetectSourceSpanCoversFence(t *testing.T) {
	text := "Before.\n```json\n{\"action\":\"create_file\",\"params\":{\"path\":\"a\",\"content\":\"b\"}}\n```\nAfter."
	intent := New().Detect(text)
	if intent == nil {
		t.Fatal("expected intent")
	}
	cut := text[intent.Source.Start:intent.Source.End]
	if !strings.HasPrefix(cut, "```json") || !strings.Contains(cut, "create_file") {
		t.Errorf("span does not cover the fence: %q", cut)
	}
	if strings.Contains(text[:intent.Source.Start], "create_file") ||
		strings.Contains(text[intent.Source.End:], "create_file") {
		t.Error("span leaks payload outside its range")
	}
}
