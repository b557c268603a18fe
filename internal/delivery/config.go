package delivery

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultHealthTimeout = 5 * time.Second

	MaxRetryAttempts = 10
)

// Config is fixed when the Client is built.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration // per attempt
	RetryAttempts int           // total attempts, including the first
	RetryDelay    time.Duration // backoff base
	HealthTimeout time.Duration

	// OAuth adds a client-credentials bearer token to every request.
	OAuth *OAuthConfig
}

type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = DefaultHealthTimeout
	}
	return c
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("delivery: base URL is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("delivery: invalid base URL %q", c.BaseURL)
	}
	if c.Timeout < 0 || c.RetryDelay < 0 || c.HealthTimeout < 0 {
		return errors.New("delivery: durations must not be negative")
	}
	if c.RetryAttempts < 1 || c.RetryAttempts > MaxRetryAttempts {
		return fmt.Errorf("delivery: retry attempts must be between 1 and %d", MaxRetryAttempts)
	}
	if c.OAuth != nil && c.OAuth.TokenURL == "" {
		return errors.New("delivery: oauth token URL is required")
	}
	return nil
}

// backoff is the wait after a failed attempt (1-indexed).
// It saturates instead of overflowing.
func (c Config) backoff(attempt int) time.Duration {
	shift := max(0, min(attempt-1, 62))
	mult := time.Duration(1) << shift
	if c.RetryDelay > math.MaxInt64/mult {
		return math.MaxInt64
	}
	return c.RetryDelay * mult
}
