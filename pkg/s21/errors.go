package s21

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError means no access token could be obtained.
type AuthError struct {
	StatusCode int // zero for transport failures
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("s21: authentication failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("s21: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-success response from the platform API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("s21: api request failed with status %d: %s", e.StatusCode, e.Body)
}

// FetchError wraps any failure to read one cluster's map.
type FetchError struct {
	ClusterID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("s21: fetch cluster %s: %v", e.ClusterID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err carries a 401 from the platform, which
// means the cached token is no longer accepted.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
