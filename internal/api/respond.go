// Package api holds the JSON response helpers shared by the HTTP services,
// including the mapping from the domain error taxonomy to status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, message string, status int) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Error maps a domain error onto its HTTP status: validation → 400,
// not-found → 404, blocked → 409, anything else → 500.
func Error(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidation(err):
		WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrBlocked):
		WriteError(w, err.Error(), http.StatusConflict)
	default:
		WriteError(w, err.Error(), http.StatusInternalServerError)
	}
}
