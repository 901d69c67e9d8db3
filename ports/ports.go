// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"

	"github.com/artpar/prism/core/schema"
)

// Sentinel errors shared by adapters. Callers match with errors.Is.
var (
	// ErrTypeNotFound means no entity type matches the given identifier.
	ErrTypeNotFound = errors.New("entity type not found")

	// ErrRecordNotFound means no record matches the given lookup.
	ErrRecordNotFound = errors.New("record not found")

	// ErrSchemaNotFound means no schema matches the given name.
	ErrSchemaNotFound = errors.New("schema not found")
)

// -----------------------------------------------------------------------------
// Entity Store Port
// -----------------------------------------------------------------------------

// EntityDescriptor identifies one entity type in the backing store.
type EntityDescriptor struct {
	// Identifier is the natural key used in request paths (e.g. "billing__invoice").
	Identifier string

	// Name is the human-readable type name (e.g. "invoice").
	Name string

	// Table is the storage-level name, when the adapter is table-backed.
	Table string
}

// NativeField describes one attribute of an entity type as the store sees it.
// Used to materialize default schema fields for types with no curated schema.
type NativeField struct {
	// Name is the attribute name. Reverse relations without an explicit
	// related name use the owning type's name (the engine appends "_set").
	Name string

	// Kind is the attribute's declared kind.
	Kind schema.Kind

	// RelatedType is the target type identifier for relation kinds.
	RelatedType string

	// HasRelatedName reports whether a reverse relation carries an explicit
	// accessor name. When false the engine derives one with a "_set" suffix.
	HasRelatedName bool
}

// Record is one stored entity instance. The "id" attribute carries the
// int64 primary key once the record has been persisted.
type Record struct {
	// Type is the descriptor of the record's entity type.
	Type EntityDescriptor

	// Attrs holds the record's attribute values keyed by attribute name.
	Attrs map[string]any
}

// ID returns the record's int64 identifier, or 0 when unsaved.
func (r *Record) ID() int64 {
	switch v := r.Attrs["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Saved reports whether the record has been persisted at least once.
func (r *Record) Saved() bool { return r.ID() != 0 }

// EntityStore is the external record store the engine serializes against.
// The engine never inspects storage internals directly; everything it
// needs flows through this contract.
type EntityStore interface {
	// ResolveType resolves a natural-key identifier to a descriptor.
	// Returns ErrTypeNotFound when no type matches.
	ResolveType(ctx context.Context, identifier string) (EntityDescriptor, error)

	// ListNativeFields enumerates the type's attributes in a stable order.
	ListNativeFields(ctx context.Context, desc EntityDescriptor) ([]NativeField, error)

	// Fetch returns the first record whose field equals value, or
	// ErrRecordNotFound.
	Fetch(ctx context.Context, desc EntityDescriptor, field string, value any) (*Record, error)

	// Query returns records matching all equality/IN filters, in a stable
	// order. Nil or empty filters return every record of the type.
	Query(ctx context.Context, desc EntityDescriptor, filters map[string]any) ([]*Record, error)

	// Create persists a new record and returns it with its id assigned.
	Create(ctx context.Context, desc EntityDescriptor, attrs map[string]any) (*Record, error)

	// Update persists attribute changes to an existing record.
	Update(ctx context.Context, rec *Record, attrs map[string]any) (*Record, error)

	// Delete removes a record by id.
	Delete(ctx context.Context, desc EntityDescriptor, id int64) error

	// RelationTarget returns the descriptor of the type on the far side
	// of a relation attribute.
	RelationTarget(ctx context.Context, desc EntityDescriptor, field string) (EntityDescriptor, error)

	// Related returns the records on the far side of a relation attribute:
	// the single target for to-one kinds, the full set for to-many kinds.
	Related(ctx context.Context, rec *Record, field string) ([]*Record, error)

	// Attach links a child record to an owner's multi-valued relation.
	Attach(ctx context.Context, owner *Record, field string, child *Record) error
}

// -----------------------------------------------------------------------------
// Schema Store Port
// -----------------------------------------------------------------------------

// SchemaStore persists schema configuration records.
type SchemaStore interface {
	// List returns every stored schema.
	List(ctx context.Context) ([]*schema.Schema, error)

	// GetByName returns the schema with the given slug, or ErrSchemaNotFound.
	GetByName(ctx context.Context, name string) (*schema.Schema, error)

	// ForType returns all schemas bound to an entity type, ordered by
	// slug then id so selection without an explicit name is deterministic.
	ForType(ctx context.Context, typeIdentifier string) ([]*schema.Schema, error)

	// Save inserts or replaces a schema and its fields.
	Save(ctx context.Context, s *schema.Schema) error

	// Delete removes a schema by id.
	Delete(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
// Auth Ports
// -----------------------------------------------------------------------------

// Principal is the acting caller. The zero value is anonymous.
type Principal struct {
	// Name identifies the caller for logging.
	Name string

	// Privileged grants full CRUD on auto-created schemas.
	Privileged bool
}

// Verb is a permission-gated operation on a schema.
type Verb string

// Permission verbs checked before pipeline execution.
const (
	VerbView   Verb = "view"
	VerbEdit   Verb = "edit"
	VerbDelete Verb = "delete"
	VerbCreate Verb = "create"
)

// PermissionGate decides whether a principal may perform a verb against
// a schema. The default implementation always grants.
type PermissionGate interface {
	Allow(ctx context.Context, p Principal, s *schema.Schema, verb Verb) bool
}

// Hasher abstracts password/token hashing.
type Hasher interface {
	// Hash creates a hash from a plaintext secret.
	Hash(plain string) ([]byte, error)

	// Compare checks a plaintext secret against a hash.
	Compare(hash []byte, plain string) bool
}
