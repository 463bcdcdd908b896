// Package httputil provides shared JSON response helpers for the API
// handlers, including the mapping from engine failure kinds to HTTP status
// codes.
package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/banshee-data/voxelforge/internal/engine"
)

// WriteJSONError writes a JSON error response with the given status code and message.
// This helper reduces duplication across API handlers.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("failed to encode json error response: %v", err)
	}
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a successful JSON response (200 OK).
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusBadRequest, msg)
}

// InternalServerError writes a 500 Internal Server Error response.
func InternalServerError(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusInternalServerError, msg)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusNotFound, msg)
}

// Conflict writes a 409 Conflict response.
func Conflict(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusConflict, msg)
}

// WriteEngineError maps an engine failure onto an HTTP response. Input,
// lookup and state failures surface verbatim; anything internal is logged
// and hidden behind a generic message.
func WriteEngineError(w http.ResponseWriter, err error) {
	switch engine.KindOf(err) {
	case engine.KindInvalidInput:
		BadRequest(w, err.Error())
	case engine.KindNotFound:
		NotFound(w, err.Error())
	case engine.KindConflict, engine.KindEmptyHistory:
		Conflict(w, err.Error())
	default:
		log.Printf("internal engine error: %v", err)
		InternalServerError(w, "internal error")
	}
}
