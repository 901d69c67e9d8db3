package app

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseFilters(t *testing.T) {
	q := url.Values{
		"paid":   {"true"},
		"draft":  {"False"},
		"amount": {"120.5"},
		"id":     {"3,5,abc"},
		"name":   {"acme"},
		"schema": {"invoice_full"},
		"format": {"form"},
		"form":   {"true"},
		"empty":  {""},
	}

	got := ParseFilters(q)

	want := map[string]any{
		"paid":   true,
		"draft":  false,
		"amount": 120.5,
		"id":     []any{int64(3), int64(5), "abc"},
		"name":   "acme",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFilters() = %#v, want %#v", got, want)
	}
}

func TestParseFiltersIntegerBeforeFloat(t *testing.T) {
	got := ParseFilters(url.Values{"n": {"42"}})
	if got["n"] != int64(42) {
		t.Errorf("integer literal = %T(%v), want int64", got["n"], got["n"])
	}
}

func TestParseFiltersDropsEmptyListElements(t *testing.T) {
	got := ParseFilters(url.Values{"id": {", ,"}})
	if _, present := got["id"]; present {
		t.Errorf("all-empty list should be dropped, got %v", got["id"])
	}
}
