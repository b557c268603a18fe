package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
)

const maxResponseBody = 64 << 10

// Recorder receives one observation per attempt.
type Recorder interface {
	ObserveDelivery(endpoint, result string, elapsed time.Duration)
}

// Client sends email requests to the mail service. It is safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	log     *zap.Logger
	metrics Recorder
	wait    func(ctx context.Context, d time.Duration) error
}

var _ email.Deliverer = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. With OAuth configured
// it becomes the transport for token and API requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger pins a logger. Without it each call logs through the
// request-scoped logger in its context.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(r Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
		wait: sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.OAuth != nil {
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		base := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = cc.Client(base)
	}
	return c, nil
}

// Send delivers req to the endpoint for its kind.
func (c *Client) Send(ctx context.Context, req email.Request) (email.Outcome, error) {
	endpoint, err := email.Endpoint(req.Kind())
	if err != nil {
		return email.Outcome{}, err
	}
	return c.send(ctx, endpoint, string(req.Kind()), req)
}

// SendEndpoint posts an arbitrary JSON payload to endpoint with the same
// retry policy as Send.
func (c *Client) SendEndpoint(ctx context.Context, endpoint string, payload any) (email.Outcome, error) {
	return c.send(ctx, endpoint, "", payload)
}

func (c *Client) send(ctx context.Context, endpoint, kind string, payload any) (email.Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return email.Outcome{}, fmt.Errorf("marshal payload: %w", err)
	}

	log := c.logger(ctx).With(zap.String("endpoint", endpoint))
	if kind != "" {
		log = log.With(zap.String("kind", kind))
	}

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		attempts = attempt
		start := time.Now()
		out, status, err := c.attempt(ctx, endpoint, body)
		elapsed := time.Since(start)

		fields := []zap.Field{
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.RetryAttempts),
			zap.Duration("elapsed", elapsed),
		}
		if status != 0 {
			fields = append(fields, zap.Int("status", status))
		}

		if err == nil {
			c.observe(endpoint, "success", elapsed)
			log.Info("email service request succeeded", append(fields, zap.String("message_id", out.MessageID))...)
			return out, nil
		}

		lastErr = err
		c.observe(endpoint, "failure", elapsed)
		log.Warn("email service request failed", append(fields, zap.Error(err))...)

		if attempt == c.cfg.RetryAttempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		if werr := c.wait(ctx, c.cfg.backoff(attempt)); werr != nil {
			lastErr = errors.Join(werr, lastErr)
			break
		}
	}

	log.Error("email delivery gave up", zap.Int("attempts", attempts), zap.Error(lastErr))
	return email.Outcome{}, &Error{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
}

// attempt performs one bounded POST. The returned status is 0 when no
// response arrived.
func (c *Client) attempt(ctx context.Context, endpoint string, body []byte) (email.Outcome, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return email.Outcome{}, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return email.Outcome{}, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return email.Outcome{}, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return email.Outcome{}, resp.StatusCode, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(data), 512),
		}
	}

	var out email.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		return email.Outcome{}, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return out, resp.StatusCode, nil
}

// CheckHealth reports whether the mail service answers GET /health with a
// 2xx status within HealthTimeout. It never returns an error.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger(ctx).Warn("email service health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) logger(ctx context.Context) *zap.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.From(ctx).Named("delivery")
}

func (c *Client) observe(endpoint, result string, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveDelivery(endpoint, result, elapsed)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
