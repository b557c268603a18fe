package store

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	ClaimNextEmailJob(ctx context.Context) (EmailJob, error)
	CountNewsletterSignups(ctx context.Context, arg CountNewsletterSignupsParams) (int64, error)
	CountPendingByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	CountSignupsBySource(ctx context.Context) ([]CountSignupsBySourceRow, error)
	CountSignupsByStatus(ctx context.Context) ([]CountSignupsByStatusRow, error)
	CreateContactSubmission(ctx context.Context, arg CreateContactSubmissionParams) (ContactSubmission, error)
	CreateEmailJob(ctx context.Context, arg CreateEmailJobParams) (EmailJob, error)
	CreateNewsletterSignup(ctx context.Context, arg CreateNewsletterSignupParams) (NewsletterSignup, error)
	DeleteNewsletterSignup(ctx context.Context, id uuid.UUID) (int64, error)
	GetNewsletterSignup(ctx context.Context, id uuid.UUID) (NewsletterSignup, error)
	GetNewsletterSignupByEmail(ctx context.Context, email string) (NewsletterSignup, error)
	GetNewsletterSignupByTokenHash(ctx context.Context, tokenHash string) (NewsletterSignup, error)
	ListNewsletterSignups(ctx context.Context, arg ListNewsletterSignupsParams) ([]NewsletterSignup, error)
	UnsubscribeNewsletterSignup(ctx context.Context, arg UnsubscribeNewsletterSignupParams) (NewsletterSignup, error)
	UpdateEmailJobStatus(ctx context.Context, arg UpdateEmailJobStatusParams) (EmailJob, error)
	VerifyNewsletterSignup(ctx context.Context, arg VerifyNewsletterSignupParams) (NewsletterSignup, error)
}

var _ Querier = (*Queries)(nil)
