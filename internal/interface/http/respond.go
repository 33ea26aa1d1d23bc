package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError represents an API error as a {kind, message} pair. Kind is the
// wire-level error class from shared.Kind; message is safe to show to users.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: false,
		Error: &APIError{
			Kind:    kind,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}

	_ = json.NewEncoder(w).Encode(response)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error to HTTP status, kind, and message.
func writeDomainError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), shared.Kind(err), messageForError(err))
}

// statusForError maps error kinds to HTTP status codes.
func statusForError(err error) int {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest
	case shared.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case shared.IsInvalidState(err), shared.IsConflict(err):
		return http.StatusConflict
	case shared.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageForError extracts the human-readable message. DomainError carries
// a curated message; anything else gets a generic one so internals never
// leak onto the wire.
func messageForError(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	switch {
	case shared.IsNotFound(err), shared.IsValidation(err), shared.IsInvalidState(err),
		shared.IsConflict(err), shared.IsUnauthorized(err):
		return err.Error()
	case shared.IsStoreUnavailable(err):
		return "service temporarily unavailable, please retry"
	default:
		return "an unexpected error occurred"
	}
}
