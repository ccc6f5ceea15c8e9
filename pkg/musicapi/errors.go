package musicapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a non-success response from the music server.
type Error struct {
	StatusCode int    // HTTP status code
	Message    string // Error message from the server, if any
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("musicapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("musicapi: status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is an *Error with the same status code.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// Temporary returns true if the request may succeed when retried.
//
// Server errors (5xx) and rate limiting (429) are considered temporary.
func (e *Error) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Predefined errors for common cases.
var (
	// ErrNotFound matches responses with status 404.
	ErrNotFound = &Error{StatusCode: http.StatusNotFound}

	// ErrInvalidConfig is returned when client configuration is invalid.
	ErrInvalidConfig = errors.New("musicapi: invalid configuration")

	// ErrUnsuccessful is returned when the server answers 200 but the
	// envelope reports success=false.
	ErrUnsuccessful = errors.New("musicapi: request unsuccessful")

	// ErrEmptyBody is returned when a stream response carries no audio.
	ErrEmptyBody = errors.New("musicapi: empty body")
)

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return shouldRetryNetworkError(err)
}
