package handler

import "testing"

func TestCoerceDecimal(t *testing.T) {
	cases := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{"120.00", "120.00", false},
		{"1,200.50", "1200.50", false},
		{"1 200,50", "1200.50", false},
		{"99,5", "99.5", false},
		{"1,000,000", "1000000", false},
		{"  42  ", "42", false},
		{"1 234,5", "1234.5", false},
		{int64(15), "15", false},
		{12.5, "12.5", false},
		{"abc", "", true},
		{nil, "", true},
	}

	for _, tc := range cases {
		got, err := CoerceDecimal(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("CoerceDecimal(%v) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("CoerceDecimal(%v) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CoerceDecimal(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	if n, err := CoerceInt("42"); err != nil || n != 42 {
		t.Errorf("CoerceInt(string) = %d, %v", n, err)
	}
	if n, err := CoerceInt(float64(7)); err != nil || n != 7 {
		t.Errorf("CoerceInt(float64) = %d, %v", n, err)
	}
	if _, err := CoerceInt("seven"); err == nil {
		t.Error("CoerceInt should reject non-numeric strings")
	}
}

func TestCoerceFloat(t *testing.T) {
	if f, err := CoerceFloat(" 3.5 "); err != nil || f != 3.5 {
		t.Errorf("CoerceFloat = %v, %v", f, err)
	}
	if _, err := CoerceFloat(map[string]any{}); err == nil {
		t.Error("CoerceFloat should reject non-numeric values")
	}
}

func TestSuffixID(t *testing.T) {
	cases := map[string]string{
		"customer":    "customer_id",
		"customer_id": "customer_id",
		"guid":        "guid",
		"route":       "route_id",
	}
	for in, want := range cases {
		if got := suffixID(in); got != want {
			t.Errorf("suffixID(%q) = %q, want %q", in, got, want)
		}
	}
}
