package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BasilJohn/GraceGuide/pkg/logger"
	"github.com/BasilJohn/GraceGuide/pkg/validator"
)

// ErrorBody is the error shape the GraceGuide backend emits:
// {"error": "...", "details": "..."}. The client-side error parser in
// pkg/errors decodes the same shape.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response with the given status and message.
// Internal server errors are logged with the request-scoped logger when the
// context carries one, falling back to the provided logger.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string, fallback *slog.Logger) {
	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", message),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		// Do not leak internals to the client.
		message = "internal server error"
	}

	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteValidationError writes a 400 response carrying field-level details
// from a validation failure.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorBody{
			Error:   "request validation failed",
			Details: valErr.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
}
