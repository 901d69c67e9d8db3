package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "prism.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ddl := []string{
		`CREATE TABLE customer (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT
		)`,
		`CREATE TABLE invoice (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount TEXT,
			paid BOOLEAN,
			customer_id INTEGER REFERENCES customer(id)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func testEntityStore(t *testing.T) *EntityStore {
	t.Helper()
	return NewEntityStore(testDB(t))
}

func TestEntityResolveType(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()

	desc, err := s.ResolveType(ctx, "invoice")
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if desc.Identifier != "invoice" || desc.Table != "invoice" {
		t.Errorf("descriptor = %+v", desc)
	}

	// Bookkeeping and internal tables are not entity types.
	if _, err := s.ResolveType(ctx, "prism_schemas"); !errors.Is(err, ports.ErrTypeNotFound) {
		t.Errorf("bookkeeping table error = %v, want ErrTypeNotFound", err)
	}
	if _, err := s.ResolveType(ctx, "nope"); !errors.Is(err, ports.ErrTypeNotFound) {
		t.Errorf("unknown table error = %v, want ErrTypeNotFound", err)
	}
}

func TestEntityListNativeFields(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()

	invoices, _ := s.ResolveType(ctx, "invoice")
	fields, err := s.ListNativeFields(ctx, invoices)
	if err != nil {
		t.Fatalf("ListNativeFields() error = %v", err)
	}
	byName := make(map[string]ports.NativeField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	if byName["id"].Kind != schema.KindInt {
		t.Errorf("id kind = %s", byName["id"].Kind)
	}
	if byName["amount"].Kind != schema.KindChar {
		t.Errorf("amount kind = %s", byName["amount"].Kind)
	}
	if byName["paid"].Kind != schema.KindBool {
		t.Errorf("paid kind = %s", byName["paid"].Kind)
	}
	// The FK column surfaces as a to-one relation under its bare name.
	cust := byName["customer"]
	if cust.Kind != schema.KindToOne || cust.RelatedType != "customer" {
		t.Errorf("customer field = %+v", cust)
	}

	customers, _ := s.ResolveType(ctx, "customer")
	fields, err = s.ListNativeFields(ctx, customers)
	if err != nil {
		t.Fatalf("ListNativeFields() error = %v", err)
	}
	var reverse *ports.NativeField
	for i, f := range fields {
		if f.Kind == schema.KindReverseToMany {
			reverse = &fields[i]
		}
	}
	if reverse == nil || reverse.Name != "invoice" || reverse.RelatedType != "invoice" {
		t.Errorf("reverse relation = %+v", reverse)
	}
}

func TestFetchAndQueryByScalarColumn(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()
	customers, _ := s.ResolveType(ctx, "customer")

	acme, err := s.Create(ctx, customers, map[string]any{"name": "acme"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Create(ctx, customers, map[string]any{"name": "globex"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A plain column lookup must hit the column itself, not an FK alias.
	got, err := s.Fetch(ctx, customers, "name", "acme")
	if err != nil {
		t.Fatalf("Fetch() by scalar column error = %v", err)
	}
	if got.ID() != acme.ID() {
		t.Errorf("fetched id = %d, want %d", got.ID(), acme.ID())
	}

	recs, err := s.Query(ctx, customers, map[string]any{"name": "acme"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Attrs["name"] != "acme" {
		t.Fatalf("scalar filter matched %d records", len(recs))
	}

	recs, _ = s.Query(ctx, customers, map[string]any{"name": []any{"acme", "globex"}})
	if len(recs) != 2 {
		t.Errorf("IN filter matched %d, want 2", len(recs))
	}

	recs, _ = s.Query(ctx, customers, nil)
	if len(recs) != 2 {
		t.Errorf("nil filters matched %d, want all 2", len(recs))
	}
}

func TestQueryByRelationName(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()
	customers, _ := s.ResolveType(ctx, "customer")
	invoices, _ := s.ResolveType(ctx, "invoice")

	cust, _ := s.Create(ctx, customers, map[string]any{"name": "acme"})
	s.Create(ctx, invoices, map[string]any{"amount": "10", "customer_id": cust.ID()})
	s.Create(ctx, invoices, map[string]any{"amount": "20"})

	// The relation's bare name resolves to its FK column.
	recs, err := s.Query(ctx, invoices, map[string]any{"customer": cust.ID()})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Attrs["amount"] != "10" {
		t.Errorf("relation filter matched %+v", recs)
	}
}

func TestEntityCreateUpdateDelete(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()
	invoices, _ := s.ResolveType(ctx, "invoice")

	rec, err := s.Create(ctx, invoices, map[string]any{"amount": "120.00"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !rec.Saved() {
		t.Fatal("created record must have an id")
	}

	updated, err := s.Update(ctx, rec, map[string]any{"amount": "99.00"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Attrs["amount"] != "99.00" || updated.ID() != rec.ID() {
		t.Errorf("after update = %+v", updated.Attrs)
	}

	if err := s.Delete(ctx, invoices, rec.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Fetch(ctx, invoices, "id", rec.ID()); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Errorf("fetch after delete = %v, want ErrRecordNotFound", err)
	}
	if err := s.Delete(ctx, invoices, rec.ID()); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Errorf("second delete = %v, want ErrRecordNotFound", err)
	}
}

func TestEntityRelated(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()
	customers, _ := s.ResolveType(ctx, "customer")
	invoices, _ := s.ResolveType(ctx, "invoice")

	cust, _ := s.Create(ctx, customers, map[string]any{"name": "acme"})
	inv, _ := s.Create(ctx, invoices, map[string]any{"amount": "10", "customer_id": cust.ID()})
	bare, _ := s.Create(ctx, invoices, map[string]any{"amount": "20"})

	related, err := s.Related(ctx, inv, "customer")
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 1 || related[0].Attrs["name"] != "acme" {
		t.Errorf("to-one related = %+v", related)
	}

	// Null FK resolves to no records, not an error.
	related, err = s.Related(ctx, bare, "customer")
	if err != nil || len(related) != 0 {
		t.Errorf("null relation = %v, %v", related, err)
	}

	// Reverse side, through the accessor-suffixed name.
	related, err = s.Related(ctx, cust, "invoice_set")
	if err != nil {
		t.Fatalf("Related() reverse error = %v", err)
	}
	if len(related) != 1 || related[0].ID() != inv.ID() {
		t.Errorf("reverse related = %+v", related)
	}
}

func TestEntityAttach(t *testing.T) {
	s := testEntityStore(t)
	ctx := context.Background()
	customers, _ := s.ResolveType(ctx, "customer")
	invoices, _ := s.ResolveType(ctx, "invoice")

	cust, _ := s.Create(ctx, customers, map[string]any{"name": "acme"})
	inv, _ := s.Create(ctx, invoices, map[string]any{"amount": "10"})

	if err := s.Attach(ctx, cust, "invoice_set", inv); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	related, err := s.Related(ctx, cust, "invoice_set")
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 1 || related[0].ID() != inv.ID() {
		t.Errorf("related after attach = %+v", related)
	}
}

func TestSchemaStoreRoundTrip(t *testing.T) {
	store := NewSchemaStore(testDB(t))
	ctx := context.Background()

	sc := &schema.Schema{
		Name:       "invoice_public",
		EntityType: "invoice",
		Active:     true,
		Format:     schema.FormatRest,
		Permissions: schema.Permissions{View: true},
		Fields: []*schema.SchemaField{
			{Name: "id", Kind: schema.KindInt, Active: true, Order: 1},
			{Name: "amount", Kind: schema.KindDecimal, Active: true, Required: true, Order: 2},
		},
	}
	if err := store.Save(ctx, sc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if sc.ID == "" {
		t.Fatal("saved schema should have an id")
	}

	got, err := store.GetByName(ctx, "invoice_public")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	fields := got.ActiveFields()
	if len(fields) != 2 || fields[0].Name != "id" || fields[1].Name != "amount" {
		t.Fatalf("fields after round trip = %+v", fields)
	}
	if !fields[1].Required || !got.Permissions.View {
		t.Error("required and permission flags should survive the round trip")
	}

	// Re-saving the same id replaces the field set.
	sc.Fields = sc.Fields[:1]
	if err := store.Save(ctx, sc); err != nil {
		t.Fatalf("re-Save() error = %v", err)
	}
	got, _ = store.GetByName(ctx, "invoice_public")
	if len(got.ActiveFields()) != 1 {
		t.Errorf("fields after re-save = %d, want 1", len(got.ActiveFields()))
	}

	if err := store.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByName(ctx, "invoice_public"); !errors.Is(err, ports.ErrSchemaNotFound) {
		t.Errorf("after delete = %v, want ErrSchemaNotFound", err)
	}
	if err := store.Delete(ctx, sc.ID); !errors.Is(err, ports.ErrSchemaNotFound) {
		t.Errorf("second delete = %v, want ErrSchemaNotFound", err)
	}
}

func TestSchemaStoreForTypeOrder(t *testing.T) {
	store := NewSchemaStore(testDB(t))
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		sc := &schema.Schema{Name: name, EntityType: "invoice", Active: true}
		if err := store.Save(ctx, sc); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}

	got, err := store.ForType(ctx, "invoice")
	if err != nil {
		t.Fatalf("ForType() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "zeta" {
		t.Errorf("ForType order = %s, %s", got[0].Name, got[1].Name)
	}
}
