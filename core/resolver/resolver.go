// Package resolver selects the schema a request runs under and
// materializes default fields for schemas with no curated ones. All
// lookups are recomputed per call; configuration edits take effect on
// the next request.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resolver turns (type, optional schema name) into a usable schema.
type Resolver struct {
	store   ports.EntityStore
	schemas ports.SchemaStore
	logger  zerolog.Logger
}

// New creates a resolver over the two stores.
func New(store ports.EntityStore, schemas ports.SchemaStore, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, schemas: schemas, logger: logger}
}

// Resolve selects the schema for a request. An explicit name wins, but
// only when the named schema is bound to the requested type; with
// no name the first active schema bound to the type is taken, ordered
// by slug then id so the choice is deterministic. When the type has no
// schema at all, a default one is auto-created and persisted: view-only
// for anonymous callers, full CRUD for privileged ones. Inactive
// schemas are never returned.
func (r *Resolver) Resolve(ctx context.Context, p ports.Principal, typeIdentifier, schemaName string) (*schema.Schema, error) {
	desc, err := r.store.ResolveType(ctx, typeIdentifier)
	if err != nil {
		return nil, err
	}

	if schemaName != "" {
		s, err := r.schemas.GetByName(ctx, schemaName)
		if err != nil {
			return nil, err
		}
		if !s.Active {
			return nil, fmt.Errorf("schema %q is inactive: %w", schemaName, ports.ErrSchemaNotFound)
		}
		if s.EntityType != desc.Identifier {
			return nil, fmt.Errorf("schema %q is bound to %s, not %s: %w",
				schemaName, s.EntityType, desc.Identifier, ports.ErrSchemaNotFound)
		}
		return r.MaterializeFields(ctx, desc, s)
	}

	candidates, err := r.schemas.ForType(ctx, desc.Identifier)
	if err != nil && !errors.Is(err, ports.ErrSchemaNotFound) {
		return nil, err
	}
	for _, s := range candidates {
		if s.Active {
			return r.MaterializeFields(ctx, desc, s)
		}
	}

	return r.synthesize(ctx, p, desc)
}

// synthesize auto-creates the default schema for a type on first use.
func (r *Resolver) synthesize(ctx context.Context, p ports.Principal, desc ports.EntityDescriptor) (*schema.Schema, error) {
	s := &schema.Schema{
		ID:         uuid.NewString(),
		Name:       desc.Identifier + "_default",
		EntityType: desc.Identifier,
		Active:     true,
		Format:     schema.FormatRest,
		Permissions: schema.Permissions{
			View:   true,
			Edit:   p.Privileged,
			Delete: p.Privileged,
			Create: p.Privileged,
		},
		Synthesized: true,
	}

	materialized, err := r.MaterializeFields(ctx, desc, s)
	if err != nil {
		return nil, err
	}
	if err := r.schemas.Save(ctx, materialized); err != nil {
		return nil, fmt.Errorf("persist default schema for %s: %w", desc.Identifier, err)
	}
	r.logger.Info().
		Str("type", desc.Identifier).
		Str("schema", materialized.Name).
		Bool("privileged", p.Privileged).
		Msg("auto-created default schema")
	return materialized, nil
}

// MaterializeFields fills in default fields for a schema with no active
// ones: one synthesized field per native attribute of the bound entity
// type, in the store's stable order. Reverse relations without an
// explicit accessor name get the "_set" suffix convention. Schemas that
// already carry active fields pass through untouched.
func (r *Resolver) MaterializeFields(ctx context.Context, desc ports.EntityDescriptor, s *schema.Schema) (*schema.Schema, error) {
	if len(s.ActiveFields()) > 0 {
		return s, nil
	}

	native, err := r.store.ListNativeFields(ctx, desc)
	if err != nil {
		return nil, err
	}

	fields := make([]*schema.SchemaField, 0, len(native))
	for i, nf := range native {
		name := nf.Name
		if nf.Kind == schema.KindReverseToMany && !nf.HasRelatedName {
			name += "_set"
		}
		fields = append(fields, &schema.SchemaField{
			Name:   name,
			Label:  name,
			Kind:   nf.Kind,
			Active: true,
			Order:  i + 1,
		})
	}
	s.Fields = fields
	return s, nil
}
