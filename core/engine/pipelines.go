package engine

import (
	"context"

	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// The engine is the dispatcher's recursion target: relation handlers
// call back into the pipelines through this interface when a field
// carries a nested schema reference.
var _ handler.Pipelines = (*Engine)(nil)

// SerializeNested serializes a related record set through the named
// schema in that schema's own format. An empty set serializes to nil,
// never an empty sub-document; a single related record unwraps to its
// lone projection.
func (e *Engine) SerializeNested(ctx context.Context, hc handler.Context, schemaName string, records []*ports.Record) (any, error) {
	if len(records) == 0 {
		return nil, nil
	}
	s, err := e.schemas.GetByName(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	out, err := e.Serialize(ctx, hc, s, records, "")
	if err != nil {
		return nil, err
	}
	if len(records) == 1 {
		return unwrapSingle(out), nil
	}
	return out, nil
}

// DeserializeNested materializes one sub-record from a sub-document
// with method=create.
func (e *Engine) DeserializeNested(ctx context.Context, hc handler.Context, schemaName string, doc any) (*ports.Record, error) {
	s, err := e.schemas.GetByName(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	rec, _, err := e.Deserialize(ctx, hc, s, doc, MethodCreate, "", nil)
	return rec, err
}

// ValidateNested runs the named schema's validator at the given level.
func (e *Engine) ValidateNested(ctx context.Context, hc handler.Context, schemaName string, doc any, level int) (bool, []schema.FieldResult, error) {
	s, err := e.schemas.GetByName(ctx, schemaName)
	if err != nil {
		return false, nil, err
	}
	return e.Validate(ctx, hc, s, doc, level)
}

// StructureNested returns the named schema's structure projection.
func (e *Engine) StructureNested(ctx context.Context, hc handler.Context, schemaName string) (any, error) {
	s, err := e.schemas.GetByName(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	return e.Structure(ctx, hc, s)
}

// unwrapSingle collapses a one-element projection list to its element.
func unwrapSingle(out any) any {
	switch v := out.(type) {
	case []map[string]any:
		if len(v) == 1 {
			return v[0]
		}
	case [][]map[string]any:
		if len(v) == 1 {
			return v[0]
		}
	}
	return out
}
