package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response from the marketplace API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("marketplace API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("marketplace API error (status %d)", e.StatusCode)
}

// newAPIError builds an APIError from an HTTP error response, keeping a
// bounded slice of the body for diagnostics.
func newAPIError(statusCode int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}

// IsRetryable reports whether the error is worth retrying: network failures
// and server-side or rate-limit statuses. Auth and validation errors are not.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Non-API errors are transport failures
	return err != nil
}
