package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/prism/core/schema"
)

// Check resolves the validation behavior for the field's declared kind
// and invokes it. The required rule is common to every kind and runs
// first: an absent value on a required field short-circuits to invalid.
func (d *Dispatcher) Check(ctx context.Context, hc Context, f *schema.SchemaField, value any) schema.FieldResult {
	res := schema.FieldResult{
		Name:    f.Name,
		Value:   value,
		Kind:    f.Kind,
		IsValid: true,
	}

	if isEmpty(value) {
		if f.Required {
			res.Invalidate("field may not be empty")
		}
		return res
	}

	fn, ok := d.validate[f.Kind]
	if !ok {
		return res
	}
	return fn(ctx, d, hc, f, value)
}

func registerValidate(d *Dispatcher) {
	d.validate[schema.KindInt] = validateNumeric(func(v any) (any, error) {
		return CoerceInt(v)
	})
	d.validate[schema.KindFloat] = validateNumeric(func(v any) (any, error) {
		return CoerceFloat(v)
	})
	d.validate[schema.KindDecimal] = validateNumeric(func(v any) (any, error) {
		return CoerceDecimal(v)
	})

	d.validate[schema.KindDate] = validateTemporal(schema.DateLayout)
	d.validate[schema.KindTime] = validateTemporal(schema.TimeLayout)
	d.validate[schema.KindDateTime] = validateTemporal(schema.DateTimeLayout)

	d.validate[schema.KindToOne] = validateNested
	d.validate[schema.KindToMany] = validateNestedList
	d.validate[schema.KindNested] = validateNested
}

// validateNumeric builds the parse-or-invalid rule for a numeric kind.
// Required fields fail outright on a parse error; optional ones are
// defaulted with an informational note and stay valid.
func validateNumeric(parse func(any) (any, error)) ValidateFunc {
	return func(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField, value any) schema.FieldResult {
		res := schema.FieldResult{Name: f.Name, Value: value, Kind: f.Kind, IsValid: true}

		coerced, err := parse(value)
		if err != nil {
			if f.Required {
				res.Invalidate(fmt.Sprintf("invalid %s value: %v", f.Kind, value))
				return res
			}
			res.Value = f.Kind.NumericZero()
			res.InfoText = fmt.Sprintf("value %v is not a valid %s, defaulted", value, f.Kind)
			return res
		}

		res.Value = coerced
		return res
	}
}

func validateTemporal(layout string) ValidateFunc {
	return func(_ context.Context, d *Dispatcher, _ Context, f *schema.SchemaField, value any) schema.FieldResult {
		res := schema.FieldResult{Name: f.Name, Value: value, Kind: f.Kind, IsValid: true}

		s, ok := value.(string)
		if !ok {
			return res
		}
		if _, err := time.Parse(layout, s); err != nil {
			res.Invalidate(fmt.Sprintf("invalid %s value %q, expected layout %s", f.Kind, s, layout))
		}
		return res
	}
}

// validateNested recurses into the nested schema's validator and folds
// the children's validity into the parent result.
func validateNested(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) schema.FieldResult {
	res := schema.FieldResult{Name: f.Name, Value: value, Kind: f.Kind, IsValid: true}

	if f.NestedSchema == "" {
		return res
	}
	doc, ok := value.(map[string]any)
	if !ok {
		// A plain identifier needs no recursive validation.
		return res
	}

	ok2, children, err := d.pipes.ValidateNested(ctx, hc.Child(), f.NestedSchema, doc, hc.Depth+1)
	if err != nil {
		res.Invalidate(fmt.Sprintf("nested validation failed: %v", err))
		return res
	}
	res.Children = children
	if !ok2 {
		res.Invalidate("nested document is invalid")
	}
	return res
}

// validateNestedList applies the nested rule per item of a multi-valued
// submission.
func validateNestedList(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) schema.FieldResult {
	res := schema.FieldResult{Name: f.Name, Value: value, Kind: f.Kind, IsValid: true}

	items, ok := value.([]any)
	if !ok {
		res.Invalidate("expected a list")
		return res
	}

	for _, item := range items {
		child := validateNested(ctx, d, hc, f, item)
		res.Children = append(res.Children, child.Children...)
		if !child.IsValid {
			res.Invalidate("nested document is invalid")
		}
	}
	return res
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
