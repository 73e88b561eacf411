package aggregator

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx aggregator response. Code is the aggregator's own
// error code when it sent one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("aggregator: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("aggregator: %s (http %d)", e.Message, e.StatusCode)
}

// IsAuthError reports whether the stored token is no longer valid (401/403),
// requiring reconnection.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited reports a 429. Transient, retry later.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError reports a 5xx. The aggregator's fault, retry later.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsAuthError reports whether err wraps an APIError classified as an auth
// failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}

// IsRateLimited reports whether err wraps a rate-limit APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}

// IsServerError reports whether err wraps a 5xx APIError.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsServerError()
}
