package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/gsarma/courier/internal/contact"
	"github.com/gsarma/courier/internal/subscription"
)

// SignupService is the newsletter lifecycle the handlers drive.
type SignupService interface {
	Create(ctx context.Context, in subscription.SignupInput) (subscription.Signup, string, error)
	Verify(ctx context.Context, token string) (subscription.Signup, error)
	Unsubscribe(ctx context.Context, email string) (subscription.Signup, error)
	List(ctx context.Context, f subscription.ListFilter) (subscription.Page, error)
	Get(ctx context.Context, id uuid.UUID) (subscription.Signup, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (subscription.Stats, error)
}

type ContactService interface {
	Submit(ctx context.Context, in contact.Input) (contact.Submission, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MailHealth reports whether the external mail service is reachable.
type MailHealth interface {
	CheckHealth(ctx context.Context) bool
}

var (
	_ SignupService  = (*subscription.Service)(nil)
	_ ContactService = (*contact.Service)(nil)
)

type Handler struct {
	signups  SignupService
	contacts ContactService
	db       Pinger
	mail     MailHealth
}

// NewHandler builds the HTTP handlers. mail may be nil when messages are
// rendered and sent locally.
func NewHandler(signups SignupService, contacts ContactService, db Pinger, mail MailHealth) *Handler {
	return &Handler{
		signups:  signups,
		contacts: contacts,
		db:       db,
		mail:     mail,
	}
}
