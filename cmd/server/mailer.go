package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gsarma/courier/internal/api"
	"github.com/gsarma/courier/internal/config"
	"github.com/gsarma/courier/internal/delivery"
	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/metrics"
)

// mailer is the selected transport. health is set only for the HTTP mail
// service, which is the one transport with a liveness endpoint.
type mailer struct {
	deliverer email.Deliverer
	health    api.MailHealth
}

func newDeliveryClient(cfg config.Config, m *metrics.Metrics) (*delivery.Client, error) {
	es := cfg.EmailService
	dc := delivery.Config{
		BaseURL:       es.URL,
		APIKey:        es.APIKey,
		Timeout:       es.Timeout(),
		RetryAttempts: es.RetryAttempts,
		RetryDelay:    es.RetryDelay(),
	}
	if es.OAuth.Enabled() {
		dc.OAuth = &delivery.OAuthConfig{
			TokenURL:     es.OAuth.TokenURL,
			ClientID:     es.OAuth.ClientID,
			ClientSecret: es.OAuth.ClientSecret,
			Scopes:       es.OAuth.Scopes,
		}
	}
	opts := []delivery.Option{delivery.WithLogger(logger.Named("delivery"))}
	if m != nil {
		opts = append(opts, delivery.WithMetrics(m))
	}
	return delivery.New(dc, opts...)
}

func newMailer(ctx context.Context, cfg config.Config, m *metrics.Metrics) (mailer, error) {
	links := email.LinkConfig{FrontendURL: cfg.FrontendURL}
	from, admin := cfg.Email.FromEmail, cfg.Email.AdminEmail

	switch cfg.Email.Transport {
	case config.TransportHTTP, "":
		c, err := newDeliveryClient(cfg, m)
		if err != nil {
			return mailer{}, err
		}
		return mailer{deliverer: c, health: c}, nil

	case config.TransportSMTP:
		s := cfg.Email.SMTP
		p := email.NewSMTPProvider(email.SMTPConfig{
			Host:     s.Host,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			SSL:      s.SSL,
		})
		return mailer{deliverer: email.NewLocalDeliverer(p, from, admin, links)}, nil

	case config.TransportSES:
		p, err := email.NewSESProvider(ctx, cfg.Email.AWSRegion)
		if err != nil {
			return mailer{}, err
		}
		return mailer{deliverer: email.NewLocalDeliverer(p, from, admin, links)}, nil

	case config.TransportSendGrid:
		p := email.NewSendGridProvider(email.SendGridConfig{APIKey: cfg.Email.SendGridAPIKey},
			&http.Client{Timeout: cfg.EmailService.Timeout()})
		return mailer{deliverer: email.NewLocalDeliverer(p, from, admin, links)}, nil
	}
	return mailer{}, fmt.Errorf("unknown email transport %q", cfg.Email.Transport)
}
