package courier

import (
	"context"
	"net/http"
	"net/url"
)

// NewsletterService covers the public subscription lifecycle.
type NewsletterService struct {
	c *Client
}

// Subscribe creates a pending subscription and triggers the verification
// email. Use IsDuplicate to detect an address that is already on the list.
func (s *NewsletterService) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResponse, error) {
	return doRequest[SubscribeResponse](ctx, s.c, http.MethodPost, "/newsletter-signups", req, false, http.StatusOK)
}

// Verify redeems a verification token. On failure, IsTokenExpired,
// IsTokenInvalid and IsTokenAlreadyUsed tell the cases apart.
func (s *NewsletterService) Verify(ctx context.Context, token string) (*SignupResponse, error) {
	path := "/newsletter-signups/verify/" + url.PathEscape(token)
	return doRequest[SignupResponse](ctx, s.c, http.MethodPost, path, nil, false, http.StatusOK)
}

// Unsubscribe is idempotent. An unknown address fails with IsNotFound.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) (*SignupResponse, error) {
	body := map[string]string{"email": email}
	return doRequest[SignupResponse](ctx, s.c, http.MethodPost, "/newsletter-signups/unsubscribe", body, false, http.StatusOK)
}
