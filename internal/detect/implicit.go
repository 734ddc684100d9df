package detect

import "chatpilot/internal/model"

// implicitStrategy surfaces a bare fenced code block as a low-confidence
// suggestion. The candidate is never auto-executed: implicit confidence
// forces a confirmation regardless of security level.
type implicitStrategy struct{}

func (implicitStrategy) Name() string { return "implicit_code_block" }

func (implicitStrategy) Detect(text string) (*model.Intent, bool) {
	fences := ScanFences(text)
	if len(fences) == 0 {
		return nil, false
	}

	f := fences[0]
	return &model.Intent{
		Kind: model.KindImplicitCode,
		RawParams: map[string]string{
			"path":    SuggestedFilename(f.Lang),
			"content": f.Body,
			"lang":    f.Lang,
		},
		Source:     f.Span,
		Confidence: model.ConfImplicit,
	}, true
}
