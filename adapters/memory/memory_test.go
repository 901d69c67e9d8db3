package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

func invoiceTypes() []TypeDef {
	return []TypeDef{
		{
			Identifier: "invoice",
			Fields: []ports.NativeField{
				{Name: "id", Kind: schema.KindInt},
				{Name: "amount", Kind: schema.KindDecimal},
				{Name: "customer", Kind: schema.KindToOne, RelatedType: "customer"},
				{Name: "tags", Kind: schema.KindToMany, RelatedType: "tag"},
			},
		},
		{
			Identifier: "customer",
			Fields: []ports.NativeField{
				{Name: "id", Kind: schema.KindInt},
				{Name: "name", Kind: schema.KindChar},
			},
		},
		{
			Identifier: "tag",
			Fields: []ports.NativeField{
				{Name: "id", Kind: schema.KindInt},
				{Name: "label", Kind: schema.KindChar},
			},
		},
	}
}

func TestResolveType(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()

	desc, err := s.ResolveType(ctx, "invoice")
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if desc.Identifier != "invoice" {
		t.Errorf("identifier = %s", desc.Identifier)
	}

	if _, err := s.ResolveType(ctx, "nope"); !errors.Is(err, ports.ErrTypeNotFound) {
		t.Errorf("unknown type error = %v, want ErrTypeNotFound", err)
	}
}

func TestCreateFetchUpdateDelete(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()
	desc, _ := s.ResolveType(ctx, "invoice")

	rec, err := s.Create(ctx, desc, map[string]any{"amount": "120.00"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID() == 0 {
		t.Fatal("created record must have an id")
	}

	got, err := s.Fetch(ctx, desc, "amount", "120.00")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.ID() != rec.ID() {
		t.Errorf("fetched id = %d, want %d", got.ID(), rec.ID())
	}

	if _, err := s.Update(ctx, rec, map[string]any{"amount": "99.00"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = s.Fetch(ctx, desc, "id", rec.ID())
	if got.Attrs["amount"] != "99.00" {
		t.Errorf("amount after update = %v", got.Attrs["amount"])
	}

	if err := s.Delete(ctx, desc, rec.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Fetch(ctx, desc, "id", rec.ID()); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Errorf("fetch after delete = %v, want ErrRecordNotFound", err)
	}
}

func TestQueryFilters(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()
	desc, _ := s.ResolveType(ctx, "invoice")

	s.Create(ctx, desc, map[string]any{"amount": "10", "paid": true})
	s.Create(ctx, desc, map[string]any{"amount": "20", "paid": false})
	s.Create(ctx, desc, map[string]any{"amount": "30", "paid": true})

	recs, err := s.Query(ctx, desc, map[string]any{"paid": true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("equality filter matched %d, want 2", len(recs))
	}

	recs, _ = s.Query(ctx, desc, map[string]any{"amount": []any{"10", "30"}})
	if len(recs) != 2 {
		t.Errorf("IN filter matched %d, want 2", len(recs))
	}

	recs, _ = s.Query(ctx, desc, nil)
	if len(recs) != 3 {
		t.Errorf("nil filters matched %d, want all 3", len(recs))
	}

	// Numeric comparison crosses value shapes.
	recs, _ = s.Query(ctx, desc, map[string]any{"id": float64(1)})
	if len(recs) != 1 {
		t.Errorf("cross-shape numeric filter matched %d, want 1", len(recs))
	}
}

func TestRelatedToOne(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()
	invoices, _ := s.ResolveType(ctx, "invoice")
	customers, _ := s.ResolveType(ctx, "customer")

	cust, _ := s.Create(ctx, customers, map[string]any{"name": "acme"})
	inv, _ := s.Create(ctx, invoices, map[string]any{"customer_id": cust.ID()})

	related, err := s.Related(ctx, inv, "customer")
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 1 || related[0].Attrs["name"] != "acme" {
		t.Errorf("related = %+v", related)
	}

	// Null relation resolves to no records, not an error.
	bare, _ := s.Create(ctx, invoices, nil)
	related, err = s.Related(ctx, bare, "customer")
	if err != nil || len(related) != 0 {
		t.Errorf("null relation = %v, %v", related, err)
	}
}

func TestAttachAndRelatedToMany(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()
	invoices, _ := s.ResolveType(ctx, "invoice")
	tags, _ := s.ResolveType(ctx, "tag")

	inv, _ := s.Create(ctx, invoices, nil)
	t1, _ := s.Create(ctx, tags, map[string]any{"label": "overdue"})
	t2, _ := s.Create(ctx, tags, map[string]any{"label": "export"})

	if err := s.Attach(ctx, inv, "tags", t1); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := s.Attach(ctx, inv, "tags", t2); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	related, err := s.Related(ctx, inv, "tags")
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("related count = %d, want 2", len(related))
	}
	if related[0].ID() != t1.ID() || related[1].ID() != t2.ID() {
		t.Error("attachment order should be preserved")
	}
}

func TestRelationTarget(t *testing.T) {
	s := NewEntityStore(invoiceTypes()...)
	ctx := context.Background()
	invoices, _ := s.ResolveType(ctx, "invoice")

	target, err := s.RelationTarget(ctx, invoices, "tags")
	if err != nil {
		t.Fatalf("RelationTarget() error = %v", err)
	}
	if target.Identifier != "tag" {
		t.Errorf("target = %s, want tag", target.Identifier)
	}
}

func TestSchemaStore(t *testing.T) {
	store := NewSchemaStore()
	ctx := context.Background()

	mk := func(name, typ string) *schema.Schema {
		return &schema.Schema{Name: name, EntityType: typ, Active: true}
	}

	for _, sc := range []*schema.Schema{mk("zeta", "invoice"), mk("alpha", "invoice"), mk("other", "note")} {
		if err := store.Save(ctx, sc); err != nil {
			t.Fatalf("Save(%s) error = %v", sc.Name, err)
		}
	}

	// ForType orders by slug so resolution is deterministic.
	got, err := store.ForType(ctx, "invoice")
	if err != nil {
		t.Fatalf("ForType() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "zeta" {
		t.Errorf("ForType order = %+v", names(got))
	}

	sc, err := store.GetByName(ctx, "other")
	if err != nil || sc.EntityType != "note" {
		t.Errorf("GetByName = %+v, %v", sc, err)
	}

	if err := store.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByName(ctx, "other"); !errors.Is(err, ports.ErrSchemaNotFound) {
		t.Errorf("after delete = %v, want ErrSchemaNotFound", err)
	}
}

func TestSchemaStoreRoundTripsParsedDefinition(t *testing.T) {
	store := NewSchemaStore()
	ctx := context.Background()

	parsed, err := schema.Parse([]byte(`
schema: invoice_public
entity_type: invoice
fields:
  - name: id
    kind: int
  - name: amount
    kind: decimal
    required: true
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := store.Save(ctx, parsed); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.GetByName(ctx, "invoice_public")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID == "" {
		t.Error("saved schema should have an id")
	}
	fields := got.ActiveFields()
	if len(fields) != 2 || fields[0].Name != "id" || fields[1].Name != "amount" {
		t.Errorf("fields after round trip = %d", len(fields))
	}
	if !fields[1].Required {
		t.Error("required flag should survive the round trip")
	}
}

func TestSchemaStoreRejectsInvalid(t *testing.T) {
	store := NewSchemaStore()
	bad := &schema.Schema{Name: "bad"} // no entity type
	if err := store.Save(context.Background(), bad); err == nil {
		t.Fatal("Save() should reject unbindable schemas")
	}
}

func names(schemas []*schema.Schema) []string {
	out := make([]string, len(schemas))
	for i, s := range schemas {
		out[i] = s.Name
	}
	return out
}
