package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	msgNotFound      = "Expense not found"
	msgDeleted       = "Expense deleted successfully"
	msgInternalError = "Internal server error"
)

// messageJSON is the body of every API error and of the delete confirmation.
type messageJSON struct {
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// statusFor maps domain errors to HTTP status codes and client messages.
// Messages for unexpected errors never leak internals.
func statusFor(err error) (int, string) {
	var v *core.ValidationError
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest, v.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}

// writeError classifies err, logs it and writes the JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	writeJSON(w, r, status, messageJSON{Message: msg})
}
