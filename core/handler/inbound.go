package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// Transform resolves the inbound behavior for the field's effective kind
// and invokes it. It returns the attribute name to set (possibly
// suffixed), the transformed value, and any field-level error. Errors
// are per-field; the pipeline records them and keeps going.
func (d *Dispatcher) Transform(ctx context.Context, hc Context, f *schema.SchemaField, value any) (string, any, error) {
	fn, ok := d.inbound[f.InboundKind()]
	if !ok {
		fn = inboundDefault
	}
	return fn(ctx, d, hc, f, value)
}

func registerInbound(d *Dispatcher) {
	for _, k := range []schema.Kind{
		schema.KindDefault, schema.KindChar, schema.KindText, schema.KindBool,
		schema.KindURL, schema.KindJSON, schema.KindFile,
	} {
		d.inbound[k] = inboundDefault
	}

	d.inbound[schema.KindInt] = inboundInt
	d.inbound[schema.KindFloat] = inboundFloat
	d.inbound[schema.KindDecimal] = inboundDecimal
	d.inbound[schema.KindDate] = inboundTemporal(schema.DateLayout)
	d.inbound[schema.KindTime] = inboundTemporal(schema.TimeLayout)
	d.inbound[schema.KindDateTime] = inboundTemporal(schema.DateTimeLayout)

	d.inbound[schema.KindToOne] = inboundToOne
	d.inbound[schema.KindGenericToOne] = inboundToOne
	d.inbound[schema.KindNested] = inboundNested
	d.inbound[schema.KindToMany] = inboundToMany
	d.inbound[schema.KindReverseToMany] = inboundToMany
}

// inboundDefault passes the value through untouched.
func inboundDefault(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
	return f.Name, value, nil
}

func inboundInt(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
	n, err := CoerceInt(value)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return f.Name, n, nil
}

func inboundFloat(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
	n, err := CoerceFloat(value)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return f.Name, n, nil
}

func inboundDecimal(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
	s, err := CoerceDecimal(value)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return f.Name, s, nil
}

// inboundTemporal parses the fixed textual layout into a time value.
func inboundTemporal(layout string) InboundFunc {
	return func(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
		switch v := value.(type) {
		case time.Time:
			return f.Name, v, nil
		case string:
			t, err := time.Parse(layout, v)
			if err != nil {
				return f.Name, value, fmt.Errorf("field %s: parse %q: %w", f.Name, v, err)
			}
			return f.Name, t, nil
		default:
			return f.Name, value, nil
		}
	}
}

// inboundToOne substitutes a related identifier. A sub-document recurses
// through the nested schema first; a plain identifier is applied with
// the foreign-key "_id" suffix convention.
func inboundToOne(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) (string, any, error) {
	if doc, ok := value.(map[string]any); ok {
		if f.NestedSchema == "" {
			return f.Name, value, fmt.Errorf("field %s: got a document but no nested schema is configured", f.Name)
		}
		sub, err := d.pipes.DeserializeNested(ctx, hc.Child(), f.NestedSchema, doc)
		if err != nil {
			return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
		}
		return suffixID(f.Name), sub.ID(), nil
	}

	id, err := CoerceInt(value)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: expected identifier or document: %w", f.Name, err)
	}
	return suffixID(f.Name), id, nil
}

// inboundNested materializes a sub-record through the nested schema and
// substitutes its identifier on the owner.
func inboundNested(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) (string, any, error) {
	if f.NestedSchema == "" {
		return inboundToOne(ctx, d, hc, f, value)
	}
	sub, err := d.pipes.DeserializeNested(ctx, hc.Child(), f.NestedSchema, value)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return suffixID(f.Name), sub.ID(), nil
}

// inboundToMany fans out over each submitted item, materializing or
// resolving a child record and attaching it to the owner. It runs in the
// deferred pass, after the owner has a stable identifier.
func inboundToMany(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) (string, any, error) {
	if hc.Owner == nil {
		return f.Name, value, fmt.Errorf("field %s: multi-valued transform needs a persisted owner", f.Name)
	}

	items, ok := value.([]any)
	if !ok {
		return f.Name, value, fmt.Errorf("field %s: expected a list", f.Name)
	}

	var errs []string
	for _, item := range items {
		child, err := d.resolveChild(ctx, hc, f, item)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if err := d.store.Attach(ctx, hc.Owner, f.Name, child); err != nil {
			errs = append(errs, fmt.Sprintf("attach: %v", err))
		}
	}

	if len(errs) > 0 {
		return f.Name, nil, fmt.Errorf("field %s: %s", f.Name, strings.Join(errs, "; "))
	}
	// Attachment is the side effect; nothing is set on the owner itself.
	return f.Name, nil, nil
}

// resolveChild turns one fan-out item into a record: documents go
// through the nested schema, identifiers are fetched.
func (d *Dispatcher) resolveChild(ctx context.Context, hc Context, f *schema.SchemaField, item any) (*ports.Record, error) {
	if doc, ok := item.(map[string]any); ok {
		if f.NestedSchema == "" {
			return nil, fmt.Errorf("got a document but no nested schema is configured")
		}
		return d.pipes.DeserializeNested(ctx, hc.Child(), f.NestedSchema, doc)
	}

	id, err := CoerceInt(item)
	if err != nil {
		return nil, fmt.Errorf("expected identifier or document: %w", err)
	}
	target, err := d.store.RelationTarget(ctx, hc.Owner.Type, f.Name)
	if err != nil {
		return nil, fmt.Errorf("relation target: %w", err)
	}
	child, err := d.store.Fetch(ctx, target, "id", id)
	if err != nil {
		return nil, fmt.Errorf("resolve id %d: %w", id, err)
	}
	return child, nil
}

// suffixID applies the foreign-key naming convention: attribute names
// that do not already mention an id get the "_id" suffix.
func suffixID(name string) string {
	if strings.Contains(name, "id") {
		return name
	}
	return name + "_id"
}

// CoerceInt parses integers out of the value shapes JSON decoding and
// query parameters produce.
func CoerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", value)
	}
}

// CoerceFloat parses floats the same way.
func CoerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %v", value)
	}
}

// CoerceDecimal normalizes a decimal string: whitespace (including
// thousands-separating spaces) is stripped and a decimal comma becomes a
// decimal point before the value is checked for parseability. The
// normalized string is returned; decimals stay textual to avoid float
// rounding.
func CoerceDecimal(value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("not a decimal: %v", value)
	}

	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)

	// A single comma with no point is a decimal separator; commas in a
	// value that already has a point are thousands separators.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("not a decimal: %q", value)
	}
	return s, nil
}
