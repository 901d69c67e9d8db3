package engine

import (
	"context"

	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/schema"
)

// Validate checks a submitted document against the schema without
// persisting anything. Level 0 marks the top-level call: an invalid
// result there is inserted at the front of the list so callers see the
// most actionable error first, while nested calls (level > 0) keep
// failures in schema order.
func (e *Engine) Validate(ctx context.Context, hc handler.Context, s *schema.Schema, doc any, level int) (bool, []schema.FieldResult, error) {
	if err := e.guardDepth(hc); err != nil {
		return false, nil, err
	}

	input, err := NormalizeDocument(doc)
	if err != nil {
		return false, nil, err
	}

	valid := true
	var results []schema.FieldResult
	for _, f := range s.ActiveFields() {
		value, present := input[f.Name]
		if !present && !f.Required {
			continue
		}

		res := e.dispatch.Check(ctx, hc, f, value)
		if !res.IsValid {
			valid = false
			if level == 0 {
				results = append([]schema.FieldResult{res}, results...)
				continue
			}
		}
		results = append(results, res)
	}

	return valid, results, nil
}
