package email

import (
	"context"
	"errors"
	"fmt"
)

// LocalDeliverer renders templates in-process and hands the result to a
// Provider, for deployments without the external mail service.
type LocalDeliverer struct {
	provider   Provider
	from       string
	adminEmail string
	links      LinkConfig
	templates  map[Kind]TemplateDefinition
}

// NewLocalDeliverer returns a deliverer using DefaultTemplates. Admin
// notifications go to adminEmail.
func NewLocalDeliverer(p Provider, from, adminEmail string, links LinkConfig) *LocalDeliverer {
	return &LocalDeliverer{
		provider:   p,
		from:       from,
		adminEmail: adminEmail,
		links:      links,
		templates:  DefaultTemplates,
	}
}

func (d *LocalDeliverer) Send(ctx context.Context, req Request) (Outcome, error) {
	def, ok := d.templates[req.Kind()]
	if !ok {
		return Outcome{}, fmt.Errorf("no template for %q", req.Kind())
	}

	to := req.Recipient()
	if req.Kind() == KindAdminNotification {
		if d.adminEmail == "" {
			return Outcome{}, errors.New("admin email not configured")
		}
		to = d.adminEmail
	}

	rendered, err := RenderTemplate(def, Vars(req, d.links))
	if err != nil {
		return Outcome{}, fmt.Errorf("render %s: %w", req.Kind(), err)
	}

	id, err := d.provider.Send(ctx, Message{
		To:      []string{to},
		From:    d.from,
		Subject: rendered.Subject,
		Body:    rendered.Body,
		HTML:    rendered.HTML,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Success: true, MessageID: id}, nil
}
