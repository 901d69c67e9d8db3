package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// Value resolves the outbound behavior for the field's effective kind
// and invokes it. Any handler failure is converted to an error-tagged
// string value so one bad field never aborts serialization of the rest
// of the record.
func (d *Dispatcher) Value(ctx context.Context, hc Context, rec *ports.Record, f *schema.SchemaField) any {
	fn, ok := d.outbound[f.OutboundKind()]
	if !ok {
		fn = outboundDefault
	}

	value, err := fn(ctx, d, hc, rec, f)
	if err != nil {
		d.logger.Warn().
			Str("type", rec.Type.Identifier).
			Str("field", f.Name).
			Err(err).
			Msg("outbound handler failed")
		return fmt.Sprintf("error: %v", err)
	}
	return value
}

func registerOutbound(d *Dispatcher) {
	// Plain attribute read-through.
	for _, k := range []schema.Kind{
		schema.KindDefault, schema.KindChar, schema.KindText, schema.KindInt,
		schema.KindFloat, schema.KindDecimal, schema.KindBool, schema.KindURL,
		schema.KindJSON,
	} {
		d.outbound[k] = outboundDefault
	}

	d.outbound[schema.KindDate] = outboundTemporal(schema.DateLayout)
	d.outbound[schema.KindTime] = outboundTemporal(schema.TimeLayout)
	d.outbound[schema.KindDateTime] = outboundTemporal(schema.DateTimeLayout)

	d.outbound[schema.KindToOne] = outboundToOne
	d.outbound[schema.KindGenericToOne] = outboundToOne
	d.outbound[schema.KindToMany] = outboundToMany
	d.outbound[schema.KindReverseToMany] = outboundToMany
	d.outbound[schema.KindNested] = outboundNested
	d.outbound[schema.KindFile] = outboundFile
}

// outboundDefault reads the attribute as-is; absent attributes serialize
// to nil rather than being dropped.
func outboundDefault(_ context.Context, _ *Dispatcher, _ Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
	return rec.Attrs[f.Name], nil
}

// outboundTemporal formats time values with a fixed layout; non-time
// values pass through unchanged.
func outboundTemporal(layout string) OutboundFunc {
	return func(_ context.Context, _ *Dispatcher, _ Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
		v := rec.Attrs[f.Name]
		if t, ok := v.(time.Time); ok {
			return t.Format(layout), nil
		}
		return v, nil
	}
}

// outboundToOne projects the related record's identifier, or nil when
// the relation is absent.
func outboundToOne(ctx context.Context, d *Dispatcher, _ Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
	related, err := d.store.Related(ctx, rec, f.Name)
	if err != nil {
		return nil, fmt.Errorf("related %s: %w", f.Name, err)
	}
	if len(related) == 0 || related[0] == nil {
		return nil, nil
	}
	return related[0].ID(), nil
}

// outboundToMany projects the ordered list of related identifiers.
func outboundToMany(ctx context.Context, d *Dispatcher, _ Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
	related, err := d.store.Related(ctx, rec, f.Name)
	if err != nil {
		return nil, fmt.Errorf("related %s: %w", f.Name, err)
	}
	ids := make([]int64, 0, len(related))
	for _, r := range related {
		ids = append(ids, r.ID())
	}
	return ids, nil
}

// outboundNested serializes the relation through the field's nested
// schema. Without a nested schema reference the field degrades to the
// id projection of its declared kind; an empty relation serializes to
// nil, never an empty sub-document.
func outboundNested(ctx context.Context, d *Dispatcher, hc Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
	if f.NestedSchema == "" {
		if f.Kind.IsMulti() {
			return outboundToMany(ctx, d, hc, rec, f)
		}
		return outboundToOne(ctx, d, hc, rec, f)
	}

	related, err := d.store.Related(ctx, rec, f.Name)
	if err != nil {
		return nil, fmt.Errorf("related %s: %w", f.Name, err)
	}
	if len(related) == 0 {
		return nil, nil
	}

	return d.pipes.SerializeNested(ctx, hc.Child(), f.NestedSchema, related)
}

// outboundFile projects the file's public reference, or nil when unset.
func outboundFile(_ context.Context, _ *Dispatcher, _ Context, rec *ports.Record, f *schema.SchemaField) (any, error) {
	v, ok := rec.Attrs[f.Name]
	if !ok || v == nil || v == "" {
		return nil, nil
	}
	return fmt.Sprintf("%v", v), nil
}
