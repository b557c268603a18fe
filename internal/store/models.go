package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	SignupStatusPending      = "pending"
	SignupStatusActive       = "active"
	SignupStatusUnsubscribed = "unsubscribed"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type NewsletterSignup struct {
	ID                    uuid.UUID   `json:"id"`
	Email                 string      `json:"email"`
	FirstName             string      `json:"first_name"`
	LastName              string      `json:"last_name"`
	SubscriptionStatus    string      `json:"subscription_status"`
	Verified              bool        `json:"verified"`
	VerificationTokenHash pgtype.Text `json:"verification_token_hash"`
	VerificationExpires   *time.Time  `json:"verification_expires"`
	UsedTokenHash         pgtype.Text `json:"used_token_hash"`
	Source                string      `json:"source"`
	SourceUrl             string      `json:"source_url"`
	IpAddress             string      `json:"ip_address"`
	UserAgent             string      `json:"user_agent"`
	Consent               []byte      `json:"consent"`
	Preferences           []byte      `json:"preferences"`
	Location              []byte      `json:"location"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

type ContactSubmission struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	IpAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

type EmailJob struct {
	ID          uuid.UUID   `json:"id"`
	Kind        string      `json:"kind"`
	Payload     []byte      `json:"payload"`
	Status      string      `json:"status"`
	Attempt     int32       `json:"attempt"`
	MaxAttempts int32       `json:"max_attempts"`
	Error       pgtype.Text `json:"error"`
	RunAt       time.Time   `json:"run_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
