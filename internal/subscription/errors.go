package subscription

import "errors"

var (
	ErrEmailRequired  = errors.New("email is required")
	ErrInvalidEmail   = errors.New("email address is invalid")
	ErrDuplicateEmail = errors.New("email already subscribed to newsletter")
	ErrNotFound       = errors.New("newsletter signup not found")

	// ErrInvalidOrExpiredToken matches every *TokenError under errors.Is.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
)

// TokenReason says why a verification token was refused.
type TokenReason string

const (
	ReasonInvalid     TokenReason = "invalid"
	ReasonExpired     TokenReason = "expired"
	ReasonAlreadyUsed TokenReason = "already_used"
)

// TokenError is returned by Verify. Callers facing end users should show the
// generic message; Reason is for typed handling such as offering a resend.
type TokenError struct {
	Reason TokenReason
}

func (e *TokenError) Error() string {
	return ErrInvalidOrExpiredToken.Error() + " (" + string(e.Reason) + ")"
}

func (e *TokenError) Is(target error) bool {
	return target == ErrInvalidOrExpiredToken
}
