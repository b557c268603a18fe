package courier

import (
	"context"
	"net/http"
)

type ContactService struct {
	c *Client
}

// Submit sends a contact-form message. The sender gets a confirmation email
// and the site admin a notification.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*ContactSubmission, error) {
	body := struct {
		Data ContactRequest `json:"data"`
	}{Data: req}
	resp, err := doRequest[struct {
		Data ContactSubmission `json:"data"`
	}](ctx, s.c, http.MethodPost, "/contact-submissions", body, false, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
