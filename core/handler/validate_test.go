package handler

import (
	"context"
	"testing"

	"github.com/artpar/prism/core/schema"
	"github.com/rs/zerolog"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return New(nil, zerolog.Nop())
}

func TestCheckRequiredEmpty(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "amount", Kind: schema.KindDecimal, Required: true}

	res := d.Check(context.Background(), Context{}, f, nil)
	if res.IsValid {
		t.Fatal("required field with nil value should be invalid")
	}
	if res.ErrorText != "field may not be empty" {
		t.Errorf("error text = %q", res.ErrorText)
	}

	res = d.Check(context.Background(), Context{}, f, "")
	if res.IsValid {
		t.Error("required field with empty string should be invalid")
	}
}

func TestCheckOptionalEmpty(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "note", Kind: schema.KindChar}

	res := d.Check(context.Background(), Context{}, f, nil)
	if !res.IsValid {
		t.Error("optional empty field should stay valid")
	}
}

func TestCheckRequiredIntParse(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "count", Kind: schema.KindInt, Required: true}

	res := d.Check(context.Background(), Context{}, f, "17")
	if !res.IsValid {
		t.Fatalf("parseable int should be valid: %q", res.ErrorText)
	}
	if res.Value != int64(17) {
		t.Errorf("coerced value = %v, want 17", res.Value)
	}

	res = d.Check(context.Background(), Context{}, f, "many")
	if res.IsValid {
		t.Error("unparseable required int should be invalid")
	}
	if res.ErrorText == "" {
		t.Error("invalid result must carry error text")
	}
}

func TestCheckOptionalIntDefaults(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "count", Kind: schema.KindInt}

	res := d.Check(context.Background(), Context{}, f, "many")
	if !res.IsValid {
		t.Fatal("optional int failing coercion must stay valid")
	}
	if res.Value != int64(0) {
		t.Errorf("defaulted value = %v, want 0", res.Value)
	}
	if res.InfoText == "" {
		t.Error("defaulted substitution must carry info text")
	}
	if res.ErrorText != "" {
		t.Errorf("valid result must not carry error text, got %q", res.ErrorText)
	}
}

func TestCheckOptionalDecimalDefaults(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "price", Kind: schema.KindDecimal}

	res := d.Check(context.Background(), Context{}, f, "n/a")
	if !res.IsValid || res.Value != "0" || res.InfoText == "" {
		t.Errorf("optional decimal default: valid=%v value=%v info=%q", res.IsValid, res.Value, res.InfoText)
	}
}

func TestCheckDecimalNormalizes(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "price", Kind: schema.KindDecimal, Required: true}

	res := d.Check(context.Background(), Context{}, f, "1,200.50")
	if !res.IsValid {
		t.Fatalf("normalizable decimal should be valid: %q", res.ErrorText)
	}
	if res.Value != "1200.50" {
		t.Errorf("normalized value = %v, want 1200.50", res.Value)
	}
}

func TestCheckDate(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "issued", Kind: schema.KindDate, Required: true}

	if res := d.Check(context.Background(), Context{}, f, "31.12.2025"); !res.IsValid {
		t.Errorf("valid date rejected: %q", res.ErrorText)
	}
	if res := d.Check(context.Background(), Context{}, f, "2025-12-31"); res.IsValid {
		t.Error("wrong layout should be invalid")
	}
}

func TestCheckUnknownKindFallsBack(t *testing.T) {
	d := testDispatcher(t)
	f := &schema.SchemaField{Name: "blob", Kind: schema.Kind("legacy_thing")}

	res := d.Check(context.Background(), Context{}, f, "anything")
	if !res.IsValid {
		t.Error("unknown kinds fall back to always-valid")
	}
}
