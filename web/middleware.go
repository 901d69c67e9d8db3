package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/prism/pkg/envelope"
	"github.com/artpar/prism/ports"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const principalKey ctxKey = "principal"

// principal extracts the acting caller from the Authorization header.
// A Bearer token matching the configured admin hash yields a privileged
// principal; anything else is anonymous.
func (h *Handler) principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := ports.Principal{Name: "anonymous"}

		auth := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
			if len(h.adminHash) > 0 && h.hasher.Compare(h.adminHash, token) {
				p = ports.Principal{Name: "admin", Privileged: true}
			} else {
				h.metrics.AuthFailures.WithLabelValues("bad_token").Inc()
			}
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getPrincipal retrieves the caller from context.
func getPrincipal(ctx context.Context) ports.Principal {
	p, ok := ctx.Value(principalKey).(ports.Principal)
	if !ok {
		return ports.Principal{Name: "anonymous"}
	}
	return p
}

// recoverer converts a pipeline panic into the uniform 500 envelope
// instead of letting it reach the server.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("request panicked")
				envelope.WriteError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request and feeds the request metrics.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		h.metrics.RequestsInFlight.Inc()
		next.ServeHTTP(ww, r)
		h.metrics.RequestsInFlight.Dec()

		dur := time.Since(start)
		status := statusClass(ww.Status())
		typeID := chiParamOrDash(r, "type_id")

		h.metrics.RequestsTotal.WithLabelValues(
			r.Method, typeID, formatParam(r), status).Inc()
		h.metrics.RequestDuration.WithLabelValues(
			r.Method, typeID, status).Observe(dur.Seconds())

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", dur).
			Msg("request")
	})
}

func statusClass(code int) string {
	if code >= 400 {
		return "error"
	}
	return "ok"
}
