// Package web exposes the generic dispatch surface over HTTP: one
// parameterized endpoint family under /super-api/{type_id}, plus schema
// administration, health and metrics.
package web

import (
	"net/http"
	"time"

	"github.com/artpar/prism/adapters/metrics"
	"github.com/artpar/prism/app"
	"github.com/artpar/prism/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler provides the HTTP endpoints.
type Handler struct {
	dispatch  *app.DispatchService
	schemas   ports.SchemaStore
	hasher    ports.Hasher
	adminHash []byte
	metrics   *metrics.Collector
	logger    zerolog.Logger
	startTime time.Time
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Dispatch *app.DispatchService
	Schemas  ports.SchemaStore
	Hasher   ports.Hasher

	// AdminTokenHash is the bcrypt hash Bearer tokens are compared
	// against; empty disables privileged access.
	AdminTokenHash []byte

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// New creates the web handler.
func New(deps Deps) *Handler {
	return &Handler{
		dispatch:  deps.Dispatch,
		schemas:   deps.Schemas,
		hasher:    deps.Hasher,
		adminHash: deps.AdminTokenHash,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With().Str("component", "web").Logger(),
		startTime: time.Now(),
	}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.recoverer)
	r.Use(h.requestLogger)
	r.Use(h.principal)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/super-api", func(r chi.Router) {
		r.Route("/schemas", func(r chi.Router) {
			r.Get("/", h.handleSchemaList)
			r.Post("/", h.handleSchemaSave)
			r.Get("/{name}", h.handleSchemaGet)
			r.Delete("/{id}", h.handleSchemaDelete)
		})

		r.Route("/{type_id}", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.Post("/", h.handleCreate)
			r.Options("/", h.handleStructure)
			r.Post("/validate", h.handleValidate)

			r.Route("/{obj_id}", func(r chi.Router) {
				r.Get("/", h.handleGet)
				r.Patch("/", h.handlePatch)
				r.Delete("/", h.handleDelete)
			})
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
