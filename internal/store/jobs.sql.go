package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const emailJobColumns = `id, kind, payload, status, attempt, max_attempts, error, run_at, completed_at, created_at, updated_at`

func scanEmailJob(row rowScanner) (EmailJob, error) {
	var i EmailJob
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Payload,
		&i.Status,
		&i.Attempt,
		&i.MaxAttempts,
		&i.Error,
		&i.RunAt,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEmailJob = `-- name: CreateEmailJob :one
INSERT INTO email_jobs (kind, payload, max_attempts)
VALUES ($1, $2, $3)
RETURNING ` + emailJobColumns

type CreateEmailJobParams struct {
	Kind        string `json:"kind"`
	Payload     []byte `json:"payload"`
	MaxAttempts int32  `json:"max_attempts"`
}

func (q *Queries) CreateEmailJob(ctx context.Context, arg CreateEmailJobParams) (EmailJob, error) {
	return scanEmailJob(q.db.QueryRow(ctx, createEmailJob, arg.Kind, arg.Payload, arg.MaxAttempts))
}

// StaleJobAfter must match the interval in claimNextEmailJob.
const StaleJobAfter = 10 * time.Minute

const claimNextEmailJob = `-- name: ClaimNextEmailJob :one
UPDATE email_jobs
SET status = 'running', attempt = attempt + 1, updated_at = now()
WHERE id = (
    SELECT id FROM email_jobs
    WHERE (status = 'pending' AND run_at <= now())
       OR (status = 'running' AND updated_at < now() - interval '10 minutes')
    ORDER BY run_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + emailJobColumns

// ClaimNextEmailJob returns pgx.ErrNoRows when nothing is due. A job left
// running for StaleJobAfter (its worker died mid-send) is claimed again.
func (q *Queries) ClaimNextEmailJob(ctx context.Context) (EmailJob, error) {
	return scanEmailJob(q.db.QueryRow(ctx, claimNextEmailJob))
}

const updateEmailJobStatus = `-- name: UpdateEmailJobStatus :one
UPDATE email_jobs
SET status = $2, error = $3, completed_at = $4, run_at = $5, updated_at = now()
WHERE id = $1
RETURNING ` + emailJobColumns

type UpdateEmailJobStatusParams struct {
	ID          uuid.UUID   `json:"id"`
	Status      string      `json:"status"`
	Error       pgtype.Text `json:"error"`
	CompletedAt *time.Time  `json:"completed_at"`
	RunAt       time.Time   `json:"run_at"`
}

func (q *Queries) UpdateEmailJobStatus(ctx context.Context, arg UpdateEmailJobStatusParams) (EmailJob, error) {
	return scanEmailJob(q.db.QueryRow(ctx, updateEmailJobStatus,
		arg.ID,
		arg.Status,
		arg.Error,
		arg.CompletedAt,
		arg.RunAt,
	))
}
