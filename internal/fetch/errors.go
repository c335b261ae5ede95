package fetch

import (
	"errors"
	"fmt"
)

// ErrNetwork classifies request and timeout failures.
var ErrNetwork = errors.New("network error")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// ConnectionError is returned once every attempt of a retried request has
// failed. It carries the last underlying error.
type ConnectionError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}
