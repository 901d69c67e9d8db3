package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// Deserialize materializes one record from a submitted document through
// the schema. Method selects the resolution semantics; lookupField and
// lookupValue drive the lookup branch of the get-style methods (an
// empty lookupField means the schema's key field, falling back to
// "id").
//
// Field transforms run in two passes: plain fields first, then — after
// the record has been persisted once and has a stable identifier —
// deferred fields (multi-valued relations, generic relations and
// composites). Transform failures never abort the operation; they are
// collected per field and returned alongside the record.
func (e *Engine) Deserialize(ctx context.Context, hc handler.Context, s *schema.Schema, doc any, method Method, lookupField string, lookupValue any) (*ports.Record, map[string]string, error) {
	if err := e.guardDepth(hc); err != nil {
		return nil, nil, err
	}

	input, err := NormalizeDocument(doc)
	if err != nil {
		return nil, nil, err
	}

	desc, err := e.store.ResolveType(ctx, s.EntityType)
	if err != nil {
		return nil, nil, err
	}

	rec, existed, err := e.resolveRecord(ctx, s, desc, input, method, lookupField, lookupValue)
	if err != nil {
		return nil, nil, err
	}
	if method == MethodGet || (method == MethodGetOrCreate && existed) {
		// Lookup-only branches apply no transforms.
		return rec, nil, nil
	}

	fieldErrs := make(map[string]string)
	attrs := make(map[string]any)
	var deferred []*schema.SchemaField

	for _, f := range s.ActiveFields() {
		value, present := input[f.Name]
		if !present {
			continue
		}
		if f.Deferred() {
			deferred = append(deferred, f)
			continue
		}
		name, transformed, err := e.dispatch.Transform(ctx, hc, f, value)
		if err != nil {
			fieldErrs[f.Name] = err.Error()
			continue
		}
		attrs[name] = transformed
	}

	if rec == nil {
		rec, err = e.store.Create(ctx, desc, attrs)
	} else {
		rec, err = e.store.Update(ctx, rec, attrs)
	}
	if err != nil {
		return nil, fieldErrs, err
	}

	if len(deferred) == 0 {
		return rec, nilIfEmpty(fieldErrs), nil
	}

	// Second pass: the owner now has an identifier to attach to.
	ownerCtx := hc
	ownerCtx.Owner = rec
	deferredAttrs := make(map[string]any)
	for _, f := range deferred {
		name, transformed, err := e.dispatch.Transform(ctx, ownerCtx, f, input[f.Name])
		if err != nil {
			fieldErrs[f.Name] = err.Error()
			continue
		}
		if transformed != nil {
			deferredAttrs[name] = transformed
		}
	}

	rec, err = e.store.Update(ctx, rec, deferredAttrs)
	if err != nil {
		return nil, fieldErrs, err
	}
	return rec, nilIfEmpty(fieldErrs), nil
}

// resolveRecord applies the method's lookup branch. It returns a nil
// record when a new one must be instantiated, and reports whether the
// lookup found an existing record.
func (e *Engine) resolveRecord(ctx context.Context, s *schema.Schema, desc ports.EntityDescriptor, input map[string]any, method Method, lookupField string, lookupValue any) (*ports.Record, bool, error) {
	if method == MethodCreate {
		return nil, false, nil
	}

	if lookupField == "" {
		lookupField = keyField(s)
	}
	if lookupValue == nil {
		lookupValue = input[lookupField]
	}
	if lookupValue == nil {
		if method == MethodGet {
			return nil, false, fmt.Errorf("method %s needs a %s value: %w", method, lookupField, ports.ErrRecordNotFound)
		}
		return nil, false, nil
	}

	rec, err := e.store.Fetch(ctx, desc, lookupField, lookupValue)
	switch {
	case err == nil:
		return rec, true, nil
	case errors.Is(err, ports.ErrRecordNotFound):
		if method == MethodGet {
			return nil, false, err
		}
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// keyField returns the schema's lookup field: the first active field
// marked as key, else "id".
func keyField(s *schema.Schema) string {
	for _, f := range s.ActiveFields() {
		if f.IsKey {
			return f.Name
		}
	}
	return "id"
}

func nilIfEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}
