package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/google/uuid"
)

// SchemaStore is a thread-safe in-memory schema configuration store.
type SchemaStore struct {
	mu      sync.RWMutex
	schemas map[string]*schema.Schema
}

// NewSchemaStore creates an empty schema store, optionally seeded.
func NewSchemaStore(seed ...*schema.Schema) *SchemaStore {
	s := &SchemaStore{schemas: make(map[string]*schema.Schema)}
	for _, sc := range seed {
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		s.schemas[sc.ID] = sc
	}
	return s
}

// List returns every stored schema ordered by slug then id.
func (s *SchemaStore) List(_ context.Context) ([]*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*schema.Schema, 0, len(s.schemas))
	for _, sc := range s.schemas {
		out = append(out, sc)
	}
	sortSchemas(out)
	return out, nil
}

// GetByName returns the schema with the given slug.
func (s *SchemaStore) GetByName(_ context.Context, name string) (*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.schemas {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ports.ErrSchemaNotFound)
}

// ForType returns all schemas bound to an entity type, ordered by slug
// then id so selection without an explicit name is deterministic.
func (s *SchemaStore) ForType(_ context.Context, typeIdentifier string) ([]*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*schema.Schema
	for _, sc := range s.schemas {
		if sc.EntityType == typeIdentifier {
			out = append(out, sc)
		}
	}
	sortSchemas(out)
	return out, nil
}

// Save inserts or replaces a schema.
func (s *SchemaStore) Save(_ context.Context, sc *schema.Schema) error {
	if err := sc.Bind(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	s.schemas[sc.ID] = sc
	return nil
}

// Delete removes a schema by id.
func (s *SchemaStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schemas[id]; !ok {
		return fmt.Errorf("%q: %w", id, ports.ErrSchemaNotFound)
	}
	delete(s.schemas, id)
	return nil
}

func sortSchemas(out []*schema.Schema) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
}
