// Shared handler helpers and response constants.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"presetchat/internal/domain/preset"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"

	errFailedToEncode = "failed to encode response"
)

// writeError writes a JSON error response: {"error": message}.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// writeJSON writes a 200 (or status) JSON body.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, errFailedToEncode, http.StatusInternalServerError)
	}
}

// writePresetError maps preset store errors onto HTTP statuses.
func writePresetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preset.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, preset.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, preset.ErrDefaultPreset):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
