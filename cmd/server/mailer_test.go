package main

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gsarma/courier/internal/config"
	"github.com/gsarma/courier/internal/delivery"
	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/ratelimit"
)

func baseConfig() config.Config {
	return config.Config{
		EmailService: config.EmailServiceConfig{
			URL:           "http://localhost:3030",
			APIKey:        "dev-api-key",
			TimeoutMS:     1000,
			RetryAttempts: 3,
			RetryDelayMS:  100,
		},
		Email: config.EmailConfig{
			FromEmail:  "noreply@example.com",
			AdminEmail: "admin@example.com",
			SMTP:       config.SMTPConfig{Host: "localhost", Port: 1025},
		},
		RateLimit: config.RateLimitConfig{Max: 5, WindowSeconds: 60},
	}
}

func TestNewMailer_SelectsTransport(t *testing.T) {
	ctx := context.Background()

	cfg := baseConfig()
	cfg.Email.Transport = config.TransportHTTP
	m, err := newMailer(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if _, ok := m.deliverer.(*delivery.Client); !ok {
		t.Errorf("http transport should use the delivery client, got %T", m.deliverer)
	}
	if m.health == nil {
		t.Error("http transport should expose a health check")
	}

	for _, transport := range []string{config.TransportSMTP, config.TransportSendGrid} {
		cfg := baseConfig()
		cfg.Email.Transport = transport
		m, err := newMailer(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("%s: %v", transport, err)
		}
		if _, ok := m.deliverer.(*email.LocalDeliverer); !ok {
			t.Errorf("%s: expected local deliverer, got %T", transport, m.deliverer)
		}
		if m.health != nil {
			t.Errorf("%s: local transports have no health endpoint", transport)
		}
	}

	cfg = baseConfig()
	cfg.Email.Transport = "pigeon"
	if _, err := newMailer(ctx, cfg, nil); err == nil {
		t.Error("expected error for unknown transport")
	}
}

func TestNewLimiter(t *testing.T) {
	cfg := baseConfig()
	l, closeLimiter, err := newLimiter(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.(*ratelimit.MemoryLimiter); !ok {
		t.Errorf("expected memory limiter without REDIS_URL, got %T", l)
	}
	if err := closeLimiter(); err != nil {
		t.Errorf("closing memory limiter: %v", err)
	}

	cfg.RedisURL = "redis://localhost:6379/0"
	l, closeLimiter, err = newLimiter(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.(*ratelimit.RedisLimiter); !ok {
		t.Errorf("expected redis limiter, got %T", l)
	}

	cfg.RedisURL = "not a url"
	if _, _, err := newLimiter(cfg); err == nil {
		t.Error("expected error for malformed REDIS_URL")
	}
}

func TestNewLimiter_CloseReleasesRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	l, closeLimiter, err := newLimiter(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Allow(context.Background(), "k"); err != nil {
		t.Fatalf("allow before close: %v", err)
	}
	if err := closeLimiter(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := l.Allow(context.Background(), "k"); !errors.Is(err, redis.ErrClosed) {
		t.Errorf("expected redis.ErrClosed after close, got %v", err)
	}
}
