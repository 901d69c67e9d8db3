// Package handler implements the per-field-kind dispatch at the heart of
// the engine. Five independent families map a field's effective kind to a
// behavior: outbound value, inbound transform, validation, structure
// introspection, and form render. Unknown kinds fall back to each
// family's explicit default instead of failing, and handlers are
// stateless: all per-call state travels in a Context parameter.
package handler

import (
	"context"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/rs/zerolog"
)

// Context carries per-dispatch state. It is passed explicitly through
// every handler call and never stored on a handler.
type Context struct {
	// Principal is the acting caller.
	Principal ports.Principal

	// Owner is the record a deferred inbound transform attaches to. Set
	// only during the second deserialization pass.
	Owner *ports.Record

	// Depth counts nested-schema recursion. The pipelines reject calls
	// past their configured maximum with a defined error.
	Depth int
}

// Child returns a copy of the context one recursion level deeper.
func (c Context) Child() Context {
	c.Depth++
	c.Owner = nil
	return c
}

// Pipelines is the slice of the engine the relation handlers recurse
// into. Declared here so the dispatcher stays decoupled from the
// pipeline implementation.
type Pipelines interface {
	// SerializeNested serializes records through the named schema in its
	// own format. Returns nil for an empty record set.
	SerializeNested(ctx context.Context, hc Context, schemaName string, records []*ports.Record) (any, error)

	// DeserializeNested materializes one sub-record from a sub-document
	// through the named schema with method=create.
	DeserializeNested(ctx context.Context, hc Context, schemaName string, doc any) (*ports.Record, error)

	// ValidateNested runs the named schema's validator at the given level.
	ValidateNested(ctx context.Context, hc Context, schemaName string, doc any, level int) (bool, []schema.FieldResult, error)

	// StructureNested returns the named schema's structure projection.
	StructureNested(ctx context.Context, hc Context, schemaName string) (any, error)
}

// OutboundFunc produces a field's serialized value from a record.
type OutboundFunc func(ctx context.Context, d *Dispatcher, hc Context, rec *ports.Record, f *schema.SchemaField) (any, error)

// InboundFunc transforms a submitted value into the attribute name and
// value to set on the target record. Composite kinds may create
// auxiliary records as a side effect.
type InboundFunc func(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) (string, any, error)

// ValidateFunc checks one submitted value against a field's rules.
type ValidateFunc func(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField, value any) schema.FieldResult

// StructureFunc produces a field's structure-introspection value.
type StructureFunc func(ctx context.Context, d *Dispatcher, hc Context, f *schema.SchemaField) (any, error)

// FormFunc renders a field as an HTML form control.
type FormFunc func(f *schema.SchemaField, value any) string

// Dispatcher owns the five dispatch tables. It is safe for concurrent
// use after construction; Register* calls belong in wiring code.
type Dispatcher struct {
	store  ports.EntityStore
	pipes  Pipelines
	logger zerolog.Logger

	outbound  map[schema.Kind]OutboundFunc
	inbound   map[schema.Kind]InboundFunc
	validate  map[schema.Kind]ValidateFunc
	structure map[schema.Kind]StructureFunc
	form      map[schema.Kind]FormFunc
}

// New creates a dispatcher with the built-in behavior tables.
func New(store ports.EntityStore, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		logger:    logger,
		outbound:  make(map[schema.Kind]OutboundFunc),
		inbound:   make(map[schema.Kind]InboundFunc),
		validate:  make(map[schema.Kind]ValidateFunc),
		structure: make(map[schema.Kind]StructureFunc),
		form:      make(map[schema.Kind]FormFunc),
	}

	registerOutbound(d)
	registerInbound(d)
	registerValidate(d)
	registerStructure(d)
	registerForm(d)
	registerComposites(d)

	return d
}

// SetPipelines wires the engine back-reference used for nested-schema
// recursion. Called once during engine construction.
func (d *Dispatcher) SetPipelines(p Pipelines) { d.pipes = p }

// RegisterInbound installs a custom inbound transform, typically for a
// composite kind. Existing registrations are replaced.
func (d *Dispatcher) RegisterInbound(kind schema.Kind, fn InboundFunc) {
	d.inbound[kind] = fn
}

// RegisterOutbound installs a custom outbound behavior.
func (d *Dispatcher) RegisterOutbound(kind schema.Kind, fn OutboundFunc) {
	d.outbound[kind] = fn
}

// RegisterValidate installs a custom validation behavior.
func (d *Dispatcher) RegisterValidate(kind schema.Kind, fn ValidateFunc) {
	d.validate[kind] = fn
}
