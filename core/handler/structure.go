package handler

import (
	"context"
	"fmt"

	"github.com/artpar/prism/core/schema"
)

// Describe resolves the structure-introspection behavior for the field
// and invokes it. The projection answers "what would this field look
// like" without touching any stored record.
func (d *Dispatcher) Describe(ctx context.Context, hc Context, f *schema.SchemaField) (any, error) {
	fn, ok := d.structure[f.Kind]
	if !ok {
		fn = structureScalar
	}
	return fn(ctx, d, hc, f)
}

func registerStructure(d *Dispatcher) {
	d.structure[schema.KindNested] = structureNested
	d.structure[schema.KindToOne] = structureRelation(false)
	d.structure[schema.KindGenericToOne] = structureRelation(false)
	d.structure[schema.KindToMany] = structureRelation(true)
	d.structure[schema.KindReverseToMany] = structureRelation(true)
}

// structureScalar is the default projection: name, kind and an empty
// example value.
func structureScalar(_ context.Context, _ *Dispatcher, _ Context, f *schema.SchemaField) (any, error) {
	return map[string]any{
		"name":  f.OutputKey(),
		"type":  string(f.Kind),
		"value": emptyExample(f.Kind),
	}, nil
}

// structureRelation projects a relation placeholder. Multi-valued kinds
// wrap the shape in a one-element list so clients see the plurality.
func structureRelation(multi bool) StructureFunc {
	return func(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField) (any, error) {
		var shape any
		if f.NestedSchema != "" {
			nested, err := d.pipes.StructureNested(ctx, hc.Child(), f.NestedSchema)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			shape = nested
		} else {
			shape = map[string]any{
				"name":  f.OutputKey(),
				"type":  string(f.Kind),
				"value": nil,
			}
		}
		if multi {
			return []any{shape}, nil
		}
		return shape, nil
	}
}

// structureNested recurses into the nested schema's own projection.
func structureNested(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField) (any, error) {
	if f.NestedSchema == "" {
		return structureScalar(ctx, d, hc, f)
	}
	nested, err := d.pipes.StructureNested(ctx, hc.Child(), f.NestedSchema)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return nested, nil
}

// emptyExample yields a zero example value per kind so introspection
// output doubles as a fill-in template.
func emptyExample(k schema.Kind) any {
	switch k {
	case schema.KindInt:
		return int64(0)
	case schema.KindFloat:
		return float64(0)
	case schema.KindBool:
		return false
	case schema.KindToMany, schema.KindReverseToMany:
		return []any{}
	case schema.KindJSON:
		return map[string]any{}
	default:
		return ""
	}
}
