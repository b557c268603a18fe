package courier

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AdminService needs a client built with WithAdminKey.
type AdminService struct {
	c *Client
}

func (s *AdminService) List(ctx context.Context, opts *ListOptions) (*SignupPage, error) {
	q := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			q.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			q.Set("pageSize", strconv.Itoa(opts.PageSize))
		}
		if opts.Status != "" {
			q.Set("status", opts.Status)
		}
		if opts.Source != "" {
			q.Set("source", opts.Source)
		}
		if opts.Search != "" {
			q.Set("search", opts.Search)
		}
	}
	return doRequestWithQuery[SignupPage](ctx, s.c, http.MethodGet, "/newsletter-signups", q, nil, true, http.StatusOK)
}

func (s *AdminService) Get(ctx context.Context, id string) (*Signup, error) {
	return doRequest[Signup](ctx, s.c, http.MethodGet, "/newsletter-signups/"+url.PathEscape(id), nil, true, http.StatusOK)
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	_, err := doRequest[MessageResponse](ctx, s.c, http.MethodDelete, "/newsletter-signups/"+url.PathEscape(id), nil, true, http.StatusOK)
	return err
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	return doRequest[Stats](ctx, s.c, http.MethodGet, "/newsletter-signups/stats/overview", nil, true, http.StatusOK)
}
