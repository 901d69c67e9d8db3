// Package memory provides in-memory implementations of storage ports.
// Used in tests and for single-process deployments without persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// TypeDef declares one entity type of the in-memory store: its natural
// identifier and native fields, relations included.
type TypeDef struct {
	Identifier string
	Name       string
	Fields     []ports.NativeField
}

// EntityStore is a thread-safe in-memory record store with a declared
// type registry.
type EntityStore struct {
	mu     sync.RWMutex
	types  map[string]TypeDef
	byType map[string]map[int64]*ports.Record
	// links holds to-many attachments keyed by "type/field" then owner id.
	links  map[string]map[int64][]int64
	nextID int64
}

// NewEntityStore creates an empty store over the given type registry.
func NewEntityStore(types ...TypeDef) *EntityStore {
	s := &EntityStore{
		types:  make(map[string]TypeDef, len(types)),
		byType: make(map[string]map[int64]*ports.Record),
		links:  make(map[string]map[int64][]int64),
	}
	for _, t := range types {
		s.types[t.Identifier] = t
		s.byType[t.Identifier] = make(map[int64]*ports.Record)
	}
	return s
}

// ResolveType resolves a natural-key identifier to a descriptor.
func (s *EntityStore) ResolveType(_ context.Context, identifier string) (ports.EntityDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.types[identifier]
	if !ok {
		return ports.EntityDescriptor{}, fmt.Errorf("%q: %w", identifier, ports.ErrTypeNotFound)
	}
	return descriptor(t), nil
}

// ListNativeFields enumerates the type's declared fields in registry order.
func (s *EntityStore) ListNativeFields(_ context.Context, desc ports.EntityDescriptor) ([]ports.NativeField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.types[desc.Identifier]
	if !ok {
		return nil, fmt.Errorf("%q: %w", desc.Identifier, ports.ErrTypeNotFound)
	}
	out := make([]ports.NativeField, len(t.Fields))
	copy(out, t.Fields)
	return out, nil
}

// Fetch returns the first record whose field equals value, scanning in
// id order.
func (s *EntityStore) Fetch(_ context.Context, desc ports.EntityDescriptor, field string, value any) (*ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.ordered(desc.Identifier) {
		if looseEqual(rec.Attrs[field], value) {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%s with %s=%v: %w", desc.Identifier, field, value, ports.ErrRecordNotFound)
}

// Query returns records matching all filters, in id order. A slice
// filter value matches any of its elements (IN semantics).
func (s *EntityStore) Query(_ context.Context, desc ports.EntityDescriptor, filters map[string]any) ([]*ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.types[desc.Identifier]; !ok {
		return nil, fmt.Errorf("%q: %w", desc.Identifier, ports.ErrTypeNotFound)
	}

	var out []*ports.Record
	for _, rec := range s.ordered(desc.Identifier) {
		if matches(rec, filters) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Create persists a new record and assigns its id.
func (s *EntityStore) Create(_ context.Context, desc ports.EntityDescriptor, attrs map[string]any) (*ports.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok := s.byType[desc.Identifier]
	if !ok {
		return nil, fmt.Errorf("%q: %w", desc.Identifier, ports.ErrTypeNotFound)
	}

	s.nextID++
	rec := &ports.Record{Type: desc, Attrs: map[string]any{"id": s.nextID}}
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		rec.Attrs[k] = v
	}
	recs[s.nextID] = rec
	return rec, nil
}

// Update applies attribute changes to an existing record.
func (s *EntityStore) Update(_ context.Context, rec *ports.Record, attrs map[string]any) (*ports.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byType[rec.Type.Identifier][rec.ID()]
	if !ok {
		return nil, fmt.Errorf("%s id=%d: %w", rec.Type.Identifier, rec.ID(), ports.ErrRecordNotFound)
	}
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		stored.Attrs[k] = v
	}
	return stored, nil
}

// Delete removes a record by id.
func (s *EntityStore) Delete(_ context.Context, desc ports.EntityDescriptor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok := s.byType[desc.Identifier]
	if !ok {
		return fmt.Errorf("%q: %w", desc.Identifier, ports.ErrTypeNotFound)
	}
	if _, ok := recs[id]; !ok {
		return fmt.Errorf("%s id=%d: %w", desc.Identifier, id, ports.ErrRecordNotFound)
	}
	delete(recs, id)
	return nil
}

// RelationTarget returns the descriptor on the far side of a relation.
func (s *EntityStore) RelationTarget(_ context.Context, desc ports.EntityDescriptor, field string) (ports.EntityDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nf, err := s.fieldDef(desc.Identifier, field)
	if err != nil {
		return ports.EntityDescriptor{}, err
	}
	target, ok := s.types[nf.RelatedType]
	if !ok {
		return ports.EntityDescriptor{}, fmt.Errorf("%q: %w", nf.RelatedType, ports.ErrTypeNotFound)
	}
	return descriptor(target), nil
}

// Related returns the records on the far side of a relation attribute.
func (s *EntityStore) Related(_ context.Context, rec *ports.Record, field string) ([]*ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nf, err := s.fieldDef(rec.Type.Identifier, field)
	if err != nil {
		return nil, err
	}

	switch nf.Kind {
	case schema.KindToOne, schema.KindGenericToOne:
		fk := rec.Attrs[fkName(field)]
		if fk == nil {
			fk = rec.Attrs[field]
		}
		if fk == nil {
			return nil, nil
		}
		for _, target := range s.ordered(nf.RelatedType) {
			if looseEqual(target.Attrs["id"], fk) {
				return []*ports.Record{target}, nil
			}
		}
		return nil, nil

	case schema.KindToMany:
		key := rec.Type.Identifier + "/" + field
		var out []*ports.Record
		for _, id := range s.links[key][rec.ID()] {
			if target, ok := s.byType[nf.RelatedType][id]; ok {
				out = append(out, target)
			}
		}
		return out, nil

	case schema.KindReverseToMany:
		// Children point back at the owner with a foreign key.
		fk := fkName(strings.TrimSuffix(rec.Type.Identifier, "_set"))
		if nf.HasRelatedName {
			fk = fkName(rec.Type.Name)
		}
		var out []*ports.Record
		for _, child := range s.ordered(nf.RelatedType) {
			if looseEqual(child.Attrs[fk], rec.ID()) {
				out = append(out, child)
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("field %s of %s is not a relation", field, rec.Type.Identifier)
	}
}

// Attach links a child to an owner's multi-valued relation.
func (s *EntityStore) Attach(_ context.Context, owner *ports.Record, field string, child *ports.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nf, err := s.fieldDef(owner.Type.Identifier, field)
	if err != nil {
		return err
	}

	switch nf.Kind {
	case schema.KindToMany:
		key := owner.Type.Identifier + "/" + field
		if s.links[key] == nil {
			s.links[key] = make(map[int64][]int64)
		}
		s.links[key][owner.ID()] = append(s.links[key][owner.ID()], child.ID())
		return nil

	case schema.KindReverseToMany:
		// The link lives on the child as a foreign key.
		stored, ok := s.byType[child.Type.Identifier][child.ID()]
		if !ok {
			return fmt.Errorf("%s id=%d: %w", child.Type.Identifier, child.ID(), ports.ErrRecordNotFound)
		}
		stored.Attrs[fkName(owner.Type.Name)] = owner.ID()
		return nil

	default:
		return fmt.Errorf("field %s of %s is not multi-valued", field, owner.Type.Identifier)
	}
}

func (s *EntityStore) fieldDef(typeIdentifier, field string) (ports.NativeField, error) {
	t, ok := s.types[typeIdentifier]
	if !ok {
		return ports.NativeField{}, fmt.Errorf("%q: %w", typeIdentifier, ports.ErrTypeNotFound)
	}
	base := strings.TrimSuffix(field, "_set")
	for _, nf := range t.Fields {
		if nf.Name == field || nf.Name == base {
			return nf, nil
		}
	}
	return ports.NativeField{}, fmt.Errorf("field %s of %s not found", field, typeIdentifier)
}

// ordered returns the type's records sorted by id. Callers hold the lock.
func (s *EntityStore) ordered(typeIdentifier string) []*ports.Record {
	recs := s.byType[typeIdentifier]
	ids := make([]int64, 0, len(recs))
	for id := range recs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*ports.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, recs[id])
	}
	return out
}

func descriptor(t TypeDef) ports.EntityDescriptor {
	name := t.Name
	if name == "" {
		name = t.Identifier
	}
	return ports.EntityDescriptor{Identifier: t.Identifier, Name: name, Table: t.Identifier}
}

func fkName(name string) string {
	if strings.Contains(name, "id") {
		return name
	}
	return name + "_id"
}

func matches(rec *ports.Record, filters map[string]any) bool {
	for field, want := range filters {
		got := rec.Attrs[field]
		if list, ok := want.([]any); ok {
			hit := false
			for _, w := range list {
				if looseEqual(got, w) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares attribute values across the numeric shapes JSON
// decoding produces.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
