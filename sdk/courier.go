// Package courier provides a Go client for the courier newsletter and
// contact API.
//
// Usage:
//
//	client := courier.New("https://api.example.com")
//
//	// Start a double opt-in subscription
//	resp, err := client.Newsletter.Subscribe(ctx, courier.SubscribeRequest{
//	    Email: "reader@example.com",
//	})
//
//	// Redeem the token from the verification email
//	_, err = client.Newsletter.Verify(ctx, token)
//	if courier.IsTokenExpired(err) {
//	    // offer to resend
//	}
//
// Admin endpoints need an API key:
//
//	admin := courier.New("https://api.example.com", courier.WithAdminKey(key))
//	stats, err := admin.Admin.Stats(ctx)
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is the courier API client.
type Client struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client

	Newsletter *NewsletterService
	Contact    *ContactService
	Admin      *AdminService
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAdminKey sets the Bearer key sent to admin endpoints.
func WithAdminKey(key string) Option {
	return func(c *Client) {
		c.adminKey = key
	}
}

// New creates a client. baseURL is the API root (e.g. "https://api.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	c.Newsletter = &NewsletterService{c: c}
	c.Contact = &ContactService{c: c}
	c.Admin = &AdminService{c: c}
	return c
}

// Health checks that the server is reachable and its database answers.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/health", nil, false, http.StatusOK)
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body any, admin bool) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("courier: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}
	return req, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, path string, body any, admin bool, expectedStatus int) (*T, error) {
	return doRequestWithQuery[T](ctx, c, method, path, nil, body, admin, expectedStatus)
}

func doRequestWithQuery[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any, admin bool, expectedStatus int) (*T, error) {
	req, err := c.newRequest(ctx, method, path, body, admin)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return nil, parseError(resp)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("courier: decode response: %w", err)
	}
	return &out, nil
}

func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error  string `json:"error"`
		Code   string `json:"code"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		e.Message = body.Error
		e.Code = body.Code
		e.Reason = body.Reason
	} else {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
