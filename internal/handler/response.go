package handler

// Response helpers shared by every handler in this package. They keep two
// things consistent across the API: headers/status always go out before the
// body, and every error response has the same {"error","message"} shape
// regardless of whether it's a 400, 403, 404, or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nahid/tasklist/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — once Encode calls
// w.Write, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// This is the only place domain errors meet status codes. The service layer
// returns apperror sentinels; errors.Is walks the wrapped chain to find
// them, errors.As extracts the *AppError for its message. The distinction
// the service draws between "not found" and "not owned" is preserved here
// as 404 vs 403.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error: generic 500. The raw message could contain SQL or
	// file paths — it stays in the logs, not the response.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
