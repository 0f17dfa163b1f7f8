package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Standard sentinel errors for session-layer failure modes.
var (
	// ErrNoRefreshToken indicates an authorization failure could not be
	// recovered because no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrSessionExpired indicates the refresh token itself was rejected by
	// the backend; all credentials have been cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoSession indicates an operation that requires a signed-in session
	// was invoked without one.
	ErrNoSession = errors.New("no active session")
)

// APIError is a structured error decoded from a backend error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// errorBody covers the error shapes the backend is known to emit:
// {"error": "...", "details": "..."} and {"message": "..."}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`
}

// FromResponse reads the body of a non-2xx HTTP response and translates it
// into an *APIError. The response body is fully consumed and closed. Callers
// should only invoke this when resp.StatusCode indicates an error.
func FromResponse(resp *http.Response) *APIError {
	defer func() { _ = resp.Body.Close() }()

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil || len(bodyBytes) == 0 {
		return apiErr
	}

	var body errorBody
	if json.Unmarshal(bodyBytes, &body) != nil {
		return apiErr
	}

	switch {
	case body.Error != "":
		apiErr.Message = body.Error
	case body.Message != "":
		apiErr.Message = body.Message
	}
	apiErr.Details = body.Details
	apiErr.Code = body.Code

	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0 when err does not
// wrap an *APIError (a transport-level failure with no response).
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the status is an authorization failure on an
// ordinary endpoint (401 or 403), the trigger for the refresh protocol.
func IsUnauthorized(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsAuthRejection reports whether the status from the refresh endpoint means
// the refresh token itself is invalid or expired (400, 401, or 403), as
// opposed to the endpoint being temporarily unreachable.
func IsAuthRejection(status int) bool {
	return status == http.StatusBadRequest ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden
}

// IsNetwork reports whether err is a connectivity-shaped failure: a request
// that produced no HTTP response at all (dial failure, timeout, canceled
// connection). Errors carrying an *APIError are by definition not network
// errors, since a response was received.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
