package store

import (
	"context"
	"time"
)

const createContactSubmission = `-- name: CreateContactSubmission :one
INSERT INTO contact_submissions (document_id, name, email, subject, message, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, document_id, name, email, subject, message, ip_address, user_agent, created_at`

type CreateContactSubmissionParams struct {
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	IpAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) CreateContactSubmission(ctx context.Context, arg CreateContactSubmissionParams) (ContactSubmission, error) {
	row := q.db.QueryRow(ctx, createContactSubmission,
		arg.DocumentID,
		arg.Name,
		arg.Email,
		arg.Subject,
		arg.Message,
		arg.IpAddress,
		arg.UserAgent,
		arg.CreatedAt,
	)
	var i ContactSubmission
	err := row.Scan(
		&i.ID,
		&i.DocumentID,
		&i.Name,
		&i.Email,
		&i.Subject,
		&i.Message,
		&i.IpAddress,
		&i.UserAgent,
		&i.CreatedAt,
	)
	return i, err
}
