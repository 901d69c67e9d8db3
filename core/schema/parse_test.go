package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const sampleSchema = `
schema: invoice_public
entity_type: billing__invoice
format: rest
permissions:
  view: true
fields:
  - name: id
    kind: int
  - name: amount
    kind: decimal
    required: true
  - name: customer
    kind: to_one
    nested_schema: customer_brief
  - name: legacy_code
    active: false
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleSchema))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.Name != "invoice_public" || s.EntityType != "billing__invoice" {
		t.Errorf("parsed identity = %s/%s", s.Name, s.EntityType)
	}
	if !s.Active {
		t.Error("schema active should default to true")
	}
	if len(s.ActiveFields()) != 3 {
		t.Errorf("active fields = %d, want 3", len(s.ActiveFields()))
	}

	// Declaration order stands in for explicit sort order.
	fields := s.ActiveFields()
	if fields[0].Name != "id" || fields[1].Name != "amount" || fields[2].Name != "customer" {
		t.Errorf("field order = %s, %s, %s", fields[0].Name, fields[1].Name, fields[2].Name)
	}

	amount := s.FieldByName("amount")
	if amount == nil || !amount.Required {
		t.Error("amount should be required")
	}
	if amount.Label != "amount" {
		t.Errorf("label should default to name, got %q", amount.Label)
	}
	if s.FieldByName("legacy_code") != nil {
		t.Error("inactive field should not resolve by name")
	}
}

func TestParseDefaultsKindAndFormat(t *testing.T) {
	s, err := Parse([]byte("entity_type: note\nfields:\n  - name: body\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Format != FormatRest {
		t.Errorf("format should default to rest, got %s", s.Format)
	}
	if s.Name != "note" {
		t.Errorf("name should default to entity type, got %s", s.Name)
	}
	if s.Fields[0].Kind != KindDefault {
		t.Errorf("kind should default to %s, got %s", KindDefault, s.Fields[0].Kind)
	}
}

func TestJSONDefaultsActive(t *testing.T) {
	var s Schema
	body := `{"name":"note_public","entity_type":"note","fields":[{"name":"body","kind":"char"}]}`
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !s.Active {
		t.Error("schema active should default to true")
	}
	if len(s.Fields) != 1 || !s.Fields[0].Active {
		t.Error("field active should default to true")
	}

	// An explicit false is kept.
	var off Schema
	if err := json.Unmarshal([]byte(`{"name":"n","entity_type":"note","active":false}`), &off); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if off.Active {
		t.Error("explicit active: false must survive decoding")
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	bad := "entity_type: note\nfields:\n  - name: body\n  - name: body\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("Parse() should surface bind errors")
	}
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "billing")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	write := func(path, body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(dir, "note.yaml"), "entity_type: note\nfields:\n  - name: body\n")
	write(filepath.Join(sub, "invoice.yml"), "entity_type: invoice\nfields:\n  - name: amount\n")
	write(filepath.Join(dir, "README.md"), "not a schema")

	schemas, err := ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir() error = %v", err)
	}
	if len(schemas) != 2 {
		t.Errorf("parsed %d schemas, want 2", len(schemas))
	}
}
