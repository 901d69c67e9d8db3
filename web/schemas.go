package web

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/pkg/envelope"
	"github.com/go-chi/chi/v5"
)

// Schema administration. Reads are open; writes need a privileged
// principal.

func (h *Handler) handleSchemaList(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.schemas.List(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "schemas", schemas)
}

func (h *Handler) handleSchemaGet(w http.ResponseWriter, r *http.Request) {
	sc, err := h.schemas.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "schema", sc)
}

func (h *Handler) handleSchemaSave(w http.ResponseWriter, r *http.Request) {
	if !getPrincipal(r.Context()).Privileged {
		envelope.WriteError(w, http.StatusForbidden, "schema writes need a privileged token")
		return
	}

	var sc schema.Schema
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "request body is not a valid schema")
		return
	}
	if err := h.schemas.Save(r.Context(), &sc); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	envelope.Write(w, http.StatusCreated, envelope.OK("schema saved", sc))
}

func (h *Handler) handleSchemaDelete(w http.ResponseWriter, r *http.Request) {
	if !getPrincipal(r.Context()).Privileged {
		envelope.WriteError(w, http.StatusForbidden, "schema writes need a privileged token")
		return
	}

	if err := h.schemas.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "schema deleted", nil)
}
