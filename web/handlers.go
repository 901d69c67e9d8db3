package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/artpar/prism/app"
	"github.com/artpar/prism/core/engine"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/pkg/envelope"
	"github.com/artpar/prism/ports"
	"github.com/go-chi/chi/v5"
)

// buildRequest assembles the dispatch request shared by every verb.
func buildRequest(r *http.Request) (app.Request, error) {
	req := app.Request{
		Principal:  getPrincipal(r.Context()),
		TypeID:     chi.URLParam(r, "type_id"),
		SchemaName: r.URL.Query().Get("schema"),
		Format:     schema.OutputFormat(formatParam(r)),
		Filters:    app.ParseFilters(r.URL.Query()),
	}

	if raw := chi.URLParam(r, "obj_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, errors.New("object id must be an integer")
		}
		req.ObjectID = &id
	}
	return req, nil
}

// formatParam resolves the output format override: an explicit format
// parameter wins, the legacy form flag selects the label-list shape.
func formatParam(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	if r.URL.Query().Get("form") == "true" {
		return string(schema.FormatForm)
	}
	return ""
}

func chiParamOrDash(r *http.Request, name string) string {
	if v := chi.URLParam(r, name); v != "" {
		return v
	}
	return "-"
}

func decodeBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}
	var doc any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, errors.New("request body is not valid JSON")
	}
	return doc, nil
}

// writeAppError maps pipeline errors onto the envelope taxonomy.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrTypeNotFound),
		errors.Is(err, ports.ErrRecordNotFound),
		errors.Is(err, ports.ErrSchemaNotFound):
		envelope.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden):
		envelope.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrDepthExceeded):
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("dispatch failed")
		envelope.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.dispatch.Get(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "fetched", out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Body, err = decodeBody(r); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.dispatch.Post(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.Write(w, http.StatusCreated, envelope.OK("created", out))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Body, err = decodeBody(r); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.dispatch.Patch(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "updated", out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.dispatch.Delete(r.Context(), req); err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "deleted", nil)
}

func (h *Handler) handleStructure(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.dispatch.Options(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "structure", out)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := buildRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Body, err = decodeBody(r); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	valid, results, err := h.dispatch.Validate(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	envelope.WriteOK(w, "validated", map[string]any{
		"valid":  valid,
		"fields": results,
	})
}
