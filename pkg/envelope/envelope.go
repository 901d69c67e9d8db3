// Package envelope implements the uniform response envelope every
// dispatch endpoint answers with: {status, message, data}.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Status values of the envelope.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is the uniform wire response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Status: StatusOK, Message: message, Data: data}
}

// Error builds an error envelope.
func Error(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}

// Write encodes an envelope with the given HTTP status.
func Write(w http.ResponseWriter, httpStatus int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(env)
}

// WriteOK encodes a success envelope with 200.
func WriteOK(w http.ResponseWriter, message string, data any) {
	Write(w, http.StatusOK, OK(message, data))
}

// WriteError encodes an error envelope with the given status.
func WriteError(w http.ResponseWriter, httpStatus int, message string) {
	Write(w, httpStatus, Error(message))
}
