package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a schema definition from a YAML file.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a schema definition from YAML bytes and binds it.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyDefaults(&s)

	if err := s.Bind(); err != nil {
		return nil, err
	}

	return &s, nil
}

// ParseDir parses all schema definitions from a directory, including
// subdirectories. Non-YAML files are skipped.
func ParseDir(dir string) ([]*Schema, error) {
	var schemas []*Schema

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			schemas = append(schemas, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		s, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		schemas = append(schemas, s)
	}

	return schemas, nil
}

// UnmarshalYAML decodes a schema with Active defaulting to true, so
// definition files only mention the flag to disable something.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	type rawSchema Schema
	raw := rawSchema{Active: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = Schema(raw)
	return nil
}

// UnmarshalYAML decodes a field with Active defaulting to true.
func (f *SchemaField) UnmarshalYAML(value *yaml.Node) error {
	type rawField SchemaField
	raw := rawField{Active: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*f = SchemaField(raw)
	return nil
}

// UnmarshalJSON decodes a schema with Active defaulting to true, so
// the admin API behaves like the YAML definition files.
func (s *Schema) UnmarshalJSON(data []byte) error {
	type rawSchema Schema
	raw := rawSchema{Active: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Schema(raw)
	return nil
}

// UnmarshalJSON decodes a field with Active defaulting to true.
func (f *SchemaField) UnmarshalJSON(data []byte) error {
	type rawField SchemaField
	raw := rawField{Active: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = SchemaField(raw)
	return nil
}

// applyDefaults fills the values YAML authors are allowed to omit.
func applyDefaults(s *Schema) {
	if s.Format == "" {
		s.Format = FormatRest
	}
	if s.Name == "" && s.EntityType != "" {
		s.Name = s.EntityType
	}

	for i, f := range s.Fields {
		if f.Kind == "" {
			f.Kind = KindDefault
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		// Declaration order stands in for an explicit sort order.
		if f.Order == 0 {
			f.Order = i + 1
		}
	}
}
