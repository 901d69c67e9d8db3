// Package metrics provides Prometheus metrics collection for Prism.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for Prism.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Pipeline metrics
	FieldErrors      *prometheus.CounterVec
	ValidationFailed *prometheus.CounterVec
	NestedDepth      prometheus.Histogram

	// Schema metrics
	SchemasAutoCreated *prometheus.CounterVec
	SchemaReloads      prometheus.Counter
	SchemaReloadErrors prometheus.Counter

	// Auth metrics
	AuthFailures *prometheus.CounterVec
}

// New creates a new metrics collector with all metrics registered on the
// default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "requests_total",
				Help:      "Total number of dispatch requests processed",
			},
			[]string{"verb", "type", "format", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "prism",
				Name:      "request_duration_seconds",
				Help:      "Dispatch request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"verb", "type", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "prism",
				Name:      "requests_in_flight",
				Help:      "Number of dispatch requests currently being processed",
			},
		),

		FieldErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "field_errors_total",
				Help:      "Total number of per-field transform/handler errors",
			},
			[]string{"type", "direction"},
		),
		ValidationFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "validation_failed_total",
				Help:      "Total number of documents rejected by validation",
			},
			[]string{"type"},
		),
		NestedDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "prism",
				Name:      "nested_depth",
				Help:      "Nested schema recursion depth reached per request",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
			},
		),

		SchemasAutoCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "schemas_auto_created_total",
				Help:      "Total number of default schemas auto-created on first use",
			},
			[]string{"type"},
		),
		SchemaReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "schema_reloads_total",
				Help:      "Total number of successful schema directory reloads",
			},
		),
		SchemaReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "schema_reload_errors_total",
				Help:      "Total number of schema directory reload errors",
			},
		),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prism",
				Name:      "auth_failures_total",
				Help:      "Total number of authentication failures",
			},
			[]string{"reason"},
		),
	}
}
