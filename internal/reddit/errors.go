package reddit

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is wrapped by APIError for 401 and 403 responses.
	ErrUnauthorized = errors.New("reddit: unauthorized")

	// ErrRateLimited is wrapped by APIError for 429 responses that
	// persisted through retries.
	ErrRateLimited = errors.New("reddit: rate limited")

	// ErrUnexpectedStatus is wrapped by APIError for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("reddit: unexpected status")

	// ErrInvalidWindow is returned for a time window outside ValidWindows.
	ErrInvalidWindow = errors.New("reddit: invalid time window")

	// ErrInvalidLimit is returned for a non-positive submission limit.
	ErrInvalidLimit = errors.New("reddit: limit must be positive")

	// ErrMissingCredentials is returned when the client has no client ID or secret.
	ErrMissingCredentials = errors.New("reddit: missing client credentials")
)

// APIError is a non-2xx response from the token or listing endpoint.
type APIError struct {
	// Endpoint is the request path, e.g. "/r/golang/top".
	Endpoint   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %s returned %d", e.Err, e.Endpoint, e.StatusCode)
}

// Unwrap returns the sentinel classifying the status.
func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(endpoint string, status int) *APIError {
	err := ErrUnexpectedStatus
	switch {
	case status == 401 || status == 403:
		err = ErrUnauthorized
	case status == 429:
		err = ErrRateLimited
	}
	return &APIError{Endpoint: endpoint, StatusCode: status, Err: err}
}
