package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/validation"
)

// All API responses share one envelope: {"success": true, "data": ...} on
// success, {"success": false, "error": ..., "message": ...} on failure.

type errorBody struct {
	Success bool                    `json:"success"`
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, successBody{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, errLabel, message string) {
	respondJSON(w, status, errorBody{Error: errLabel, Message: message})
}

func respondValidationError(w http.ResponseWriter, result validation.Result) {
	respondJSON(w, http.StatusBadRequest, errorBody{
		Error:   "Validation failed",
		Message: "The request contains invalid fields",
		Details: result.Errors,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondServiceError maps domain sentinels to HTTP statuses. Anything
// unrecognized is a 500 with a generic message; the detail goes to the log,
// not the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found", "The requested resource does not exist")
	case errors.Is(err, core.ErrForbidden):
		respondError(w, http.StatusForbidden, "Forbidden", "You do not have access to this resource")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
