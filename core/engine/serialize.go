package engine

import (
	"context"

	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// Serialize projects the record set through the schema in the given
// format (the schema's own format when empty). Zero eligible records
// serialize to an empty document, not an error.
func (e *Engine) Serialize(ctx context.Context, hc handler.Context, s *schema.Schema, records []*ports.Record, format schema.OutputFormat) (any, error) {
	if err := e.guardDepth(hc); err != nil {
		return nil, err
	}
	if format == "" {
		format = s.Format
	}
	if format == "" {
		format = schema.FormatRest
	}

	switch format {
	case schema.FormatForm:
		return e.serializeForm(ctx, hc, s, records), nil
	case schema.FormatKeyForm:
		return e.serializeKeyForm(ctx, hc, s, records), nil
	default:
		return e.serializeRest(ctx, hc, s, records), nil
	}
}

// serializeRest builds one flat map per record, keyed by each field's
// output key. Records that project to an empty map are dropped.
func (e *Engine) serializeRest(ctx context.Context, hc handler.Context, s *schema.Schema, records []*ports.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		doc := make(map[string]any)
		for _, f := range s.ActiveFields() {
			doc[f.OutputKey()] = e.dispatch.Value(ctx, hc, rec, f)
		}
		if len(doc) == 0 {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// serializeForm builds one ordered {name, label, type, value} list per
// record. No key collapsing: duplicate names keep their positions.
func (e *Engine) serializeForm(ctx context.Context, hc handler.Context, s *schema.Schema, records []*ports.Record) [][]map[string]any {
	out := make([][]map[string]any, 0, len(records))
	for _, rec := range records {
		entries := make([]map[string]any, 0, len(s.Fields))
		for _, f := range s.ActiveFields() {
			entries = append(entries, map[string]any{
				"name":  f.Name,
				"label": f.Label,
				"type":  string(f.Kind),
				"value": e.dispatch.Value(ctx, hc, rec, f),
			})
		}
		out = append(out, entries)
	}
	return out
}

// serializeKeyForm builds one map per record keyed by field name to
// {value, type, label}, so callers get value and metadata in one round
// trip instead of a separate structure call.
func (e *Engine) serializeKeyForm(ctx context.Context, hc handler.Context, s *schema.Schema, records []*ports.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		doc := make(map[string]any)
		for _, f := range s.ActiveFields() {
			doc[f.Name] = map[string]any{
				"value": e.dispatch.Value(ctx, hc, rec, f),
				"type":  string(f.Kind),
				"label": f.Label,
			}
		}
		out = append(out, doc)
	}
	return out
}

// RenderForm renders each field of the record as an HTML control, in
// schema order. A nil record renders empty controls.
func (e *Engine) RenderForm(ctx context.Context, hc handler.Context, s *schema.Schema, rec *ports.Record) []map[string]any {
	entries := make([]map[string]any, 0, len(s.Fields))
	for _, f := range s.ActiveFields() {
		var value any
		if rec != nil {
			value = e.dispatch.Value(ctx, hc, rec, f)
		}
		entries = append(entries, map[string]any{
			"name":    f.Name,
			"label":   f.Label,
			"control": e.dispatch.Render(f, value),
		})
	}
	return entries
}

// Structure returns the introspection projection of the schema: one
// {name, type, value} shape per active field with an empty example
// value, recursing into nested schemas. No record is touched.
func (e *Engine) Structure(ctx context.Context, hc handler.Context, s *schema.Schema) (any, error) {
	if err := e.guardDepth(hc); err != nil {
		return nil, err
	}

	fields := make([]any, 0, len(s.Fields))
	for _, f := range s.ActiveFields() {
		shape, err := e.dispatch.Describe(ctx, hc, f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, shape)
	}
	return fields, nil
}
