package envelope

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteOK(rec, "fetched", map[string]any{"id": 7})

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != StatusOK || env.Message != "fetched" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 404, "entity type not found")

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != StatusError {
		t.Errorf("status field = %q, want error", env.Status)
	}
	if env.Data != nil {
		t.Errorf("error envelope should omit data, got %v", env.Data)
	}
}
