// Package contact accepts contact-form submissions, stores them and
// notifies both the sender and the site admin.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/notify"
	"github.com/gsarma/courier/internal/store"
)

const (
	MinMessageLength = 10
	MaxMessageLength = 5000
)

var (
	ErrMissingFields = errors.New("name, email, subject and message are required")
	ErrInvalidEmail  = errors.New("email address is invalid")
	ErrMessageLength = fmt.Errorf("message must be between %d and %d characters", MinMessageLength, MaxMessageLength)
)

type Store interface {
	CreateContactSubmission(ctx context.Context, arg store.CreateContactSubmissionParams) (store.ContactSubmission, error)
}

type Input struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type Submission struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Service struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(s Store, n notify.Notifier) *Service {
	return &Service{store: s, notifier: n, now: time.Now}
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if in.Name == "" || in.Email == "" || in.Subject == "" || in.Message == "" {
		return in, ErrMissingFields
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, ErrInvalidEmail
	}
	if n := utf8.RuneCountInString(in.Message); n < MinMessageLength || n > MaxMessageLength {
		return in, ErrMessageLength
	}
	return in, nil
}

// Submit validates and stores a submission, then sends a welcome to the
// sender and a notification to the admin. Delivery failures do not fail
// the submission.
func (s *Service) Submit(ctx context.Context, in Input) (Submission, error) {
	in, err := in.normalize()
	if err != nil {
		return Submission{}, err
	}

	row, err := s.store.CreateContactSubmission(ctx, store.CreateContactSubmissionParams{
		DocumentID: uuid.NewString(),
		Name:       in.Name,
		Email:      in.Email,
		Subject:    in.Subject,
		Message:    in.Message,
		IpAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return Submission{}, fmt.Errorf("create contact submission: %w", err)
	}

	logger.From(ctx).Info("contact submission stored",
		zap.String("submission_id", row.ID.String()),
		logger.Email(row.Email),
	)

	s.notifier.Notify(ctx, email.ContactWelcome{
		Name:    row.Name,
		Email:   row.Email,
		Subject: row.Subject,
		Message: row.Message,
	})
	s.notifier.Notify(ctx, email.AdminNotification{
		Name:         row.Name,
		Email:        row.Email,
		Subject:      row.Subject,
		Message:      row.Message,
		SubmissionID: row.DocumentID,
		CreatedAt:    row.CreatedAt,
		IPAddress:    row.IpAddress,
		UserAgent:    row.UserAgent,
	})

	return Submission{
		ID:         row.ID,
		DocumentID: row.DocumentID,
		Name:       row.Name,
		Email:      row.Email,
		Subject:    row.Subject,
		Message:    row.Message,
		CreatedAt:  row.CreatedAt,
	}, nil
}
