// Package detect recovers discrete action intents from free-form model
// text. Strategies run in strict precedence order; the first one that
// yields a candidate wins. Strategies are never merged or voted.
package detect

import "chatpilot/internal/model"

// Strategy is one extraction pass over finalized model text. Detection
// only runs on complete responses, never on streaming chunks.
type Strategy interface {
	Name() string
	Detect(text string) (*model.Intent, bool)
}

// Detector runs the ordered strategy pipeline.
type Detector struct {
	strategies []Strategy
}

// New returns a Detector with the standard precedence:
// explicit JSON, then phrase + code block, then implicit code block.
func New() *Detector {
	return &Detector{
		strategies: []Strategy{
			jsonStrategy{},
			phraseStrategy{},
			implicitStrategy{},
		},
	}
}

// Detect yields zero-or-one best intent for the given model text.
// No match means the turn is plain conversation.
func (d *Detector) Detect(modelText string) *model.Intent {
	if modelText == "" {
		return nil
	}
	for _, s := range d.strategies {
		if intent, ok := s.Detect(modelText); ok {
			return intent
		}
	}
	return nil
}
