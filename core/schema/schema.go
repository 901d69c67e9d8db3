// Package schema defines the persisted configuration model for the
// serialization engine: a Schema is one named, reusable projection of one
// entity type, made of ordered SchemaFields. Schemas are configuration
// records, not code; editing one takes effect on the next request.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// OutputFormat selects the shape the serialization pipeline produces.
type OutputFormat string

const (
	// FormatRest is a flat map per record, keyed by output key.
	FormatRest OutputFormat = "rest"

	// FormatForm is an ordered {name, label, type, value} list per record.
	FormatForm OutputFormat = "form"

	// FormatKeyForm is a map keyed by field name to {value, type, label}.
	// Callers use it to get value and metadata in one round trip.
	FormatKeyForm OutputFormat = "key-form"
)

// Valid reports whether f is one of the supported formats.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatRest, FormatForm, FormatKeyForm:
		return true
	}
	return false
}

// Permissions are the per-schema CRUD gates.
type Permissions struct {
	View   bool `yaml:"view" json:"view"`
	Edit   bool `yaml:"edit" json:"edit"`
	Delete bool `yaml:"delete" json:"delete"`
	Create bool `yaml:"create" json:"create"`
}

// Schema is one persisted projection definition bound to exactly one
// entity type.
type Schema struct {
	// ID is the schema record identifier (uuid).
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Name is the slug used to select this schema explicitly.
	Name string `yaml:"schema" json:"name"`

	// EntityType is the natural-key identifier of the bound entity type.
	EntityType string `yaml:"entity_type" json:"entity_type"`

	// Active schemas participate in resolution; inactive ones are never
	// returned by the resolver.
	Active bool `yaml:"active" json:"active"`

	// Format is the default output shape for this schema.
	Format OutputFormat `yaml:"format,omitempty" json:"format"`

	// Permissions gate the four verbs.
	Permissions Permissions `yaml:"permissions" json:"permissions"`

	// Fields are the declared projections, kept in insertion order here;
	// use ActiveFields for the dispatch order.
	Fields []*SchemaField `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Synthesized marks schemas auto-created by the resolver rather than
	// persisted configuration.
	Synthesized bool `yaml:"-" json:"-"`
}

// ActiveFields returns the active fields sorted by Order (ties broken by
// name for stability). This is the order every pipeline iterates in.
func (s *Schema) ActiveFields() []*SchemaField {
	fields := make([]*SchemaField, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Active {
			fields = append(fields, f)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].Name < fields[j].Name
	})
	return fields
}

// FieldByName returns the first active field with the given name, or nil.
func (s *Schema) FieldByName(name string) *SchemaField {
	for _, f := range s.ActiveFields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Bind validates the schema as configuration. Duplicate active field
// names would make dispatch precedence undefined, so they are rejected
// here rather than surfacing as silent shadowing at request time.
func (s *Schema) Bind() error {
	var errs []string

	if s.EntityType == "" {
		errs = append(errs, "entity_type is required")
	}
	if s.Format != "" && !s.Format.Valid() {
		errs = append(errs, fmt.Sprintf("unknown format %q", s.Format))
	}

	seen := make(map[string]bool)
	for _, f := range s.Fields {
		if f.Name == "" {
			errs = append(errs, "field name is required")
			continue
		}
		if !f.Active {
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("duplicate active field %q", f.Name))
		}
		seen[f.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("bind schema %q: %s", s.Name, strings.Join(errs, "; "))
	}
	return nil
}
