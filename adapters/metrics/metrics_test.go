package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(reg)

	c.RequestsTotal.WithLabelValues("view", "invoice", "rest", "ok").Inc()
	c.RequestsTotal.WithLabelValues("view", "invoice", "rest", "ok").Inc()
	c.FieldErrors.WithLabelValues("invoice", "inbound").Inc()

	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("view", "invoice", "rest", "ok")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.FieldErrors.WithLabelValues("invoice", "inbound")); got != 1 {
		t.Errorf("field_errors_total = %v, want 1", got)
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	// Two collectors on distinct registries must register cleanly.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.SchemaReloads.Inc()
	if got := testutil.ToFloat64(b.SchemaReloads); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}
