package courier

import (
	"errors"
	"fmt"
	"net/http"
)

// Token failure reasons reported by Verify.
const (
	ReasonInvalid     = "invalid"
	ReasonExpired     = "expired"
	ReasonAlreadyUsed = "already_used"
)

const (
	codeInvalidOrExpiredToken = "invalid_or_expired_token"
	codeDuplicateEmail        = "duplicate_email"
)

// APIError is returned when the API responds with a non-success status.
type APIError struct {
	StatusCode int
	// Code is a machine-readable error code; Reason refines token failures.
	Code    string
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("courier: HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("courier: HTTP %d: %s", e.StatusCode, e.Message)
}

func asAPIError(err error) (*APIError, bool) {
	var e *APIError
	ok := errors.As(err, &e)
	return e, ok
}

func isTokenError(err error, reason string) bool {
	e, ok := asAPIError(err)
	return ok && e.Code == codeInvalidOrExpiredToken && e.Reason == reason
}

// IsTokenExpired reports whether a verification token was valid but too old.
func IsTokenExpired(err error) bool { return isTokenError(err, ReasonExpired) }

// IsTokenInvalid reports whether a verification token was never issued or
// has been revoked.
func IsTokenInvalid(err error) bool { return isTokenError(err, ReasonInvalid) }

// IsTokenAlreadyUsed reports whether a verification token was already redeemed.
func IsTokenAlreadyUsed(err error) bool { return isTokenError(err, ReasonAlreadyUsed) }

func IsNotFound(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusNotFound
}

// IsDuplicate reports whether a signup was refused because the address is
// already subscribed.
func IsDuplicate(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Code == codeDuplicateEmail
}

func IsRateLimited(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusTooManyRequests
}
