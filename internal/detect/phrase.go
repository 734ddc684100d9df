package detect

import (
	"regexp"

	"chatpilot/internal/model"
)

// creationPhrase matches announcements of the shape
// "I'll create a file called `name`" / "let me write `name`" and captures
// the backticked or quoted path token.
var creationPhrase = regexp.MustCompile(
	`(?i)\b(?:i(?:'| wi)ll|i am going to|i'?m going to|let me)\s+` +
		`(?:create|write|save)\s+` +
		`(?:(?:a|the|this)\s+)?(?:new\s+)?(?:file\s+)?` +
		`(?:called\s+|named\s+)?` +
		"[`'\"]([^`'\"\\n]+)[`'\"]")

// phraseStrategy infers a create_file action from natural language anchored
// to a fenced code block. Both the phrase and a code block after it must be
// present; the phrase alone never triggers an action.
type phraseStrategy struct{}

func (phraseStrategy) Name() string { return "phrase_code_block" }

func (phraseStrategy) Detect(text string) (*model.Intent, bool) {
	loc := creationPhrase.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	phraseEnd := loc[1]
	path := text[loc[2]:loc[3]]

	// First fence that appears after the phrase ends; blocks before the
	// phrase are ignored.
	for _, f := range ScanFences(text) {
		if f.Span.Start < phraseEnd {
			continue
		}
		return &model.Intent{
			Kind: model.KindCreateFile,
			RawParams: map[string]string{
				"path":    path,
				"content": f.Body,
			},
			Source:     model.Span{Start: f.Span.Start, End: f.Span.End},
			Confidence: model.ConfInferred,
		}, true
	}
	return nil, false
}
