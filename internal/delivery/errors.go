package delivery

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for a non-2xx response from the mail service.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("email service returned %s", e.Status)
	}
	return fmt.Sprintf("email service returned %s: %s", e.Status, e.Body)
}

// Permanent reports whether retrying cannot help. Client errors are
// permanent except 408 and 429.
func (e *StatusError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Error is returned once every attempt has failed or a permanent failure
// stopped the retries. It unwraps to the last attempt's error.
type Error struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("send %s failed after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Permanent()
	}
	return true
}
