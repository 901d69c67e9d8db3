// Package app provides application services that orchestrate the
// pipelines behind the generic dispatch surface.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/prism/adapters/metrics"
	"github.com/artpar/prism/core/engine"
	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/resolver"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/rs/zerolog"
)

// ErrForbidden is returned when the permission gate denies a verb.
var ErrForbidden = errors.New("permission denied")

// Request is one dispatch call against an entity type.
type Request struct {
	// Principal is the acting caller.
	Principal ports.Principal

	// TypeID is the entity type's natural-key identifier.
	TypeID string

	// ObjectID addresses a single record when non-nil.
	ObjectID *int64

	// SchemaName selects a schema explicitly; empty means resolver default.
	SchemaName string

	// Format overrides the schema's output format when set.
	Format schema.OutputFormat

	// Filters are list-mode equality/IN filters.
	Filters map[string]any

	// Body is the decoded submission document for write verbs.
	Body any
}

// DispatchService orchestrates resolution, permission checks and the
// pipelines for the five dispatch verbs.
type DispatchService struct {
	store    ports.EntityStore
	resolver *resolver.Resolver
	engine   *engine.Engine
	gate     ports.PermissionGate
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewDispatchService wires a dispatch service.
func NewDispatchService(
	store ports.EntityStore,
	res *resolver.Resolver,
	eng *engine.Engine,
	gate ports.PermissionGate,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		store:    store,
		resolver: res,
		engine:   eng,
		gate:     gate,
		metrics:  collector,
		logger:   logger.With().Str("service", "dispatch").Logger(),
	}
}

// Get serializes one record or a filtered list. With an object id and
// the form format the label-list projection is returned instead of the
// flat map.
func (s *DispatchService) Get(ctx context.Context, req Request) (any, error) {
	sc, err := s.resolve(ctx, req, ports.VerbView)
	if err != nil {
		return nil, err
	}

	desc, err := s.store.ResolveType(ctx, req.TypeID)
	if err != nil {
		return nil, err
	}

	var records []*ports.Record
	if req.ObjectID != nil {
		rec, err := s.store.Fetch(ctx, desc, "id", *req.ObjectID)
		if err != nil {
			return nil, err
		}
		records = []*ports.Record{rec}
	} else {
		records, err = s.store.Query(ctx, desc, req.Filters)
		if err != nil {
			return nil, err
		}
	}

	hc := handler.Context{Principal: req.Principal}
	out, err := s.engine.Serialize(ctx, hc, sc, records, req.Format)
	if err != nil {
		return nil, err
	}
	if req.ObjectID != nil {
		return unwrapSingle(out), nil
	}
	return out, nil
}

// Post creates a new record from the submitted document.
func (s *DispatchService) Post(ctx context.Context, req Request) (any, error) {
	sc, err := s.resolve(ctx, req, ports.VerbCreate)
	if err != nil {
		return nil, err
	}

	hc := handler.Context{Principal: req.Principal}
	rec, fieldErrs, err := s.engine.Deserialize(ctx, hc, sc, req.Body, engine.MethodCreate, "", nil)
	if err != nil {
		return nil, err
	}
	s.countFieldErrors(req.TypeID, fieldErrs)

	return s.writeResult(ctx, hc, sc, rec, fieldErrs)
}

// Patch updates (or materializes) the addressed record, applying the
// field transforms regardless of which branch the lookup took.
func (s *DispatchService) Patch(ctx context.Context, req Request) (any, error) {
	sc, err := s.resolve(ctx, req, ports.VerbEdit)
	if err != nil {
		return nil, err
	}
	if req.ObjectID == nil {
		return nil, fmt.Errorf("patch needs an object id: %w", ports.ErrRecordNotFound)
	}

	hc := handler.Context{Principal: req.Principal}
	rec, fieldErrs, err := s.engine.Deserialize(ctx, hc, sc, req.Body,
		engine.MethodGetAndUpdateOrCreate, "id", *req.ObjectID)
	if err != nil {
		return nil, err
	}
	s.countFieldErrors(req.TypeID, fieldErrs)

	return s.writeResult(ctx, hc, sc, rec, fieldErrs)
}

// Delete removes the addressed record.
func (s *DispatchService) Delete(ctx context.Context, req Request) error {
	_, err := s.resolve(ctx, req, ports.VerbDelete)
	if err != nil {
		return err
	}
	if req.ObjectID == nil {
		return fmt.Errorf("delete needs an object id: %w", ports.ErrRecordNotFound)
	}

	desc, err := s.store.ResolveType(ctx, req.TypeID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, desc, *req.ObjectID)
}

// Options returns the structure-introspection projection without
// touching any record.
func (s *DispatchService) Options(ctx context.Context, req Request) (any, error) {
	sc, err := s.resolve(ctx, req, ports.VerbView)
	if err != nil {
		return nil, err
	}
	hc := handler.Context{Principal: req.Principal}
	return s.engine.Structure(ctx, hc, sc)
}

// Validate checks the submitted document without persisting anything.
func (s *DispatchService) Validate(ctx context.Context, req Request) (bool, []schema.FieldResult, error) {
	sc, err := s.resolve(ctx, req, ports.VerbView)
	if err != nil {
		return false, nil, err
	}

	hc := handler.Context{Principal: req.Principal}
	valid, results, err := s.engine.Validate(ctx, hc, sc, req.Body, 0)
	if err != nil {
		return false, nil, err
	}
	if !valid {
		s.metrics.ValidationFailed.WithLabelValues(req.TypeID).Inc()
	}
	return valid, results, nil
}

// resolve selects the schema and checks the verb against the gate.
func (s *DispatchService) resolve(ctx context.Context, req Request, verb ports.Verb) (*schema.Schema, error) {
	sc, err := s.resolver.Resolve(ctx, req.Principal, req.TypeID, req.SchemaName)
	if err != nil {
		return nil, err
	}
	if sc.Synthesized {
		s.metrics.SchemasAutoCreated.WithLabelValues(req.TypeID).Inc()
	}
	if !s.gate.Allow(ctx, req.Principal, sc, verb) {
		s.logger.Warn().
			Str("type", req.TypeID).
			Str("schema", sc.Name).
			Str("verb", string(verb)).
			Str("principal", req.Principal.Name).
			Msg("permission denied")
		return nil, fmt.Errorf("%s on %s: %w", verb, req.TypeID, ErrForbidden)
	}
	return sc, nil
}

// writeResult serializes the persisted record back through the schema,
// surfacing any per-field errors alongside it.
func (s *DispatchService) writeResult(ctx context.Context, hc handler.Context, sc *schema.Schema, rec *ports.Record, fieldErrs map[string]string) (any, error) {
	out, err := s.engine.Serialize(ctx, hc, sc, []*ports.Record{rec}, "")
	if err != nil {
		return nil, err
	}
	doc := unwrapSingle(out)
	if len(fieldErrs) == 0 {
		return doc, nil
	}
	return map[string]any{"record": doc, "field_errors": fieldErrs}, nil
}

func (s *DispatchService) countFieldErrors(typeID string, fieldErrs map[string]string) {
	for range fieldErrs {
		s.metrics.FieldErrors.WithLabelValues(typeID, "inbound").Inc()
	}
}

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
