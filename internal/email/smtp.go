package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/go-mail/mail"
)

// SMTPConfig holds credentials for an SMTP server.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	// SSL selects implicit TLS (usually port 465). Otherwise STARTTLS is
	// negotiated when the server offers it.
	SSL bool `json:"ssl"`
}

// SMTPProvider sends email over SMTP.
type SMTPProvider struct {
	cfg  SMTPConfig
	send func(*mail.Dialer, ...*mail.Message) error
}

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{
		cfg: cfg,
		send: func(d *mail.Dialer, m ...*mail.Message) error {
			return d.DialAndSend(m...)
		},
	}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := mail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	d := mail.NewDialer(p.cfg.Host, p.cfg.Port, p.cfg.Username, p.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: p.cfg.Host}
	d.SSL = p.cfg.SSL

	if err := p.send(d, m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "", nil
}
