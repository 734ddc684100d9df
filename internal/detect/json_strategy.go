package detect

import (
	"encoding/json"
	"fmt"
	"strings"

	"chatpilot/internal/model"
)

// payload is the canonical structured action shape embedded in model text:
//
//	{ "action": "...", "params": { "path": "...", "content": "..." } }
type payload struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// jsonStrategy extracts an explicit structured action from the first
// well-formed JSON fence. Malformed JSON never surfaces an error here; the
// strategy just yields nothing and control falls through.
type jsonStrategy struct{}

func (jsonStrategy) Name() string { return "explicit_json" }

func (jsonStrategy) Detect(text string) (*model.Intent, bool) {
	for _, f := range ScanFences(text) {
		if f.Lang != "json" {
			continue
		}
		var p payload
		if err := json.Unmarshal([]byte(f.Body), &p); err != nil {
			// Malformed block: skip it, keep scanning for a well-formed one.
			continue
		}
		if p.Action == "" {
			continue
		}

		// First well-formed payload decides. An unrecognized action is a
		// non-match, never an "unknown action" execution.
		kind := model.Kind(p.Action)
		if !model.KnownKinds[kind] {
			return nil, false
		}

		return &model.Intent{
			Kind:       kind,
			RawParams:  stringParams(p.Params),
			Source:     f.Span,
			Confidence: model.ConfExplicit,
		}, true
	}
	return nil, false
}

// stringParams flattens a decoded params object into string values.
// Non-string scalars are formatted; nested structures are dropped.
func stringParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		case float64:
			s := fmt.Sprintf("%v", val)
			out[k] = strings.TrimSuffix(s, ".0")
		}
	}
	return out
}
