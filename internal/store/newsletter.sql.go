package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const signupColumns = `id, email, first_name, last_name, subscription_status, verified,
    verification_token_hash, verification_expires, used_token_hash, source, source_url, ip_address,
    user_agent, consent, preferences, location, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignup(row rowScanner) (NewsletterSignup, error) {
	var i NewsletterSignup
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FirstName,
		&i.LastName,
		&i.SubscriptionStatus,
		&i.Verified,
		&i.VerificationTokenHash,
		&i.VerificationExpires,
		&i.UsedTokenHash,
		&i.Source,
		&i.SourceUrl,
		&i.IpAddress,
		&i.UserAgent,
		&i.Consent,
		&i.Preferences,
		&i.Location,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createNewsletterSignup = `-- name: CreateNewsletterSignup :one
INSERT INTO newsletter_signups (
    email, first_name, last_name, subscription_status, verified,
    verification_token_hash, verification_expires, source, source_url,
    ip_address, user_agent, consent, preferences, location, created_at, updated_at
) VALUES ($1, $2, $3, 'pending', false, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
ON CONFLICT (email) DO NOTHING
RETURNING ` + signupColumns

type CreateNewsletterSignupParams struct {
	Email                 string    `json:"email"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	VerificationTokenHash string    `json:"verification_token_hash"`
	VerificationExpires   time.Time `json:"verification_expires"`
	Source                string    `json:"source"`
	SourceUrl             string    `json:"source_url"`
	IpAddress             string    `json:"ip_address"`
	UserAgent             string    `json:"user_agent"`
	Consent               []byte    `json:"consent"`
	Preferences           []byte    `json:"preferences"`
	Location              []byte    `json:"location"`
	CreatedAt             time.Time `json:"created_at"`
}

// CreateNewsletterSignup returns pgx.ErrNoRows when the email already exists.
func (q *Queries) CreateNewsletterSignup(ctx context.Context, arg CreateNewsletterSignupParams) (NewsletterSignup, error) {
	row := q.db.QueryRow(ctx, createNewsletterSignup,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.VerificationTokenHash,
		arg.VerificationExpires,
		arg.Source,
		arg.SourceUrl,
		arg.IpAddress,
		arg.UserAgent,
		arg.Consent,
		arg.Preferences,
		arg.Location,
		arg.CreatedAt,
	)
	return scanSignup(row)
}

const getNewsletterSignup = `-- name: GetNewsletterSignup :one
SELECT ` + signupColumns + `
FROM newsletter_signups
WHERE id = $1`

func (q *Queries) GetNewsletterSignup(ctx context.Context, id uuid.UUID) (NewsletterSignup, error) {
	return scanSignup(q.db.QueryRow(ctx, getNewsletterSignup, id))
}

const getNewsletterSignupByEmail = `-- name: GetNewsletterSignupByEmail :one
SELECT ` + signupColumns + `
FROM newsletter_signups
WHERE email = $1`

func (q *Queries) GetNewsletterSignupByEmail(ctx context.Context, email string) (NewsletterSignup, error) {
	return scanSignup(q.db.QueryRow(ctx, getNewsletterSignupByEmail, email))
}

const getNewsletterSignupByTokenHash = `-- name: GetNewsletterSignupByTokenHash :one
SELECT ` + signupColumns + `
FROM newsletter_signups
WHERE verification_token_hash = $1 OR used_token_hash = $1
ORDER BY created_at
LIMIT 1`

// GetNewsletterSignupByTokenHash finds the row a token was issued to, whether
// the token is still pending or has already been redeemed.
func (q *Queries) GetNewsletterSignupByTokenHash(ctx context.Context, tokenHash string) (NewsletterSignup, error) {
	return scanSignup(q.db.QueryRow(ctx, getNewsletterSignupByTokenHash, tokenHash))
}

const verifyNewsletterSignup = `-- name: VerifyNewsletterSignup :one
UPDATE newsletter_signups
SET subscription_status     = 'active',
    verified                = true,
    verification_token_hash = NULL,
    verification_expires    = NULL,
    used_token_hash         = $1,
    updated_at              = $2
WHERE id = (
        SELECT id FROM newsletter_signups
        WHERE verification_token_hash = $1
          AND verified = false
          AND verification_expires > $2
        ORDER BY created_at
        LIMIT 1
    )
  AND verification_token_hash = $1
  AND verified = false
  AND verification_expires > $2
RETURNING ` + signupColumns

type VerifyNewsletterSignupParams struct {
	VerificationTokenHash string    `json:"verification_token_hash"`
	Now                   time.Time `json:"now"`
}

// VerifyNewsletterSignup activates at most one pending row holding the token
// hash. The outer predicates are re-checked after a concurrent update, so
// the losing caller of a race gets pgx.ErrNoRows.
func (q *Queries) VerifyNewsletterSignup(ctx context.Context, arg VerifyNewsletterSignupParams) (NewsletterSignup, error) {
	return scanSignup(q.db.QueryRow(ctx, verifyNewsletterSignup, arg.VerificationTokenHash, arg.Now))
}

const countPendingByTokenHash = `-- name: CountPendingByTokenHash :one
SELECT count(*) FROM newsletter_signups
WHERE verification_token_hash = $1 AND verified = false`

func (q *Queries) CountPendingByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPendingByTokenHash, tokenHash).Scan(&count)
	return count, err
}

const unsubscribeNewsletterSignup = `-- name: UnsubscribeNewsletterSignup :one
UPDATE newsletter_signups
SET subscription_status     = 'unsubscribed',
    verified                = false,
    verification_token_hash = NULL,
    verification_expires    = NULL,
    updated_at              = $2
WHERE email = $1
RETURNING ` + signupColumns

type UnsubscribeNewsletterSignupParams struct {
	Email string    `json:"email"`
	Now   time.Time `json:"now"`
}

func (q *Queries) UnsubscribeNewsletterSignup(ctx context.Context, arg UnsubscribeNewsletterSignupParams) (NewsletterSignup, error) {
	return scanSignup(q.db.QueryRow(ctx, unsubscribeNewsletterSignup, arg.Email, arg.Now))
}

const deleteNewsletterSignup = `-- name: DeleteNewsletterSignup :execrows
DELETE FROM newsletter_signups WHERE id = $1`

func (q *Queries) DeleteNewsletterSignup(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteNewsletterSignup, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const signupFilter = `
WHERE ($1::text IS NULL OR subscription_status = $1)
  AND ($2::text IS NULL OR source = $2)
  AND ($3::text IS NULL
       OR email ILIKE '%' || $3 || '%'
       OR first_name ILIKE '%' || $3 || '%'
       OR last_name ILIKE '%' || $3 || '%')`

const listNewsletterSignups = `-- name: ListNewsletterSignups :many
SELECT ` + signupColumns + `
FROM newsletter_signups` + signupFilter + `
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

type ListNewsletterSignupsParams struct {
	Status pgtype.Text `json:"status"`
	Source pgtype.Text `json:"source"`
	Search pgtype.Text `json:"search"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListNewsletterSignups(ctx context.Context, arg ListNewsletterSignupsParams) ([]NewsletterSignup, error) {
	rows, err := q.db.Query(ctx, listNewsletterSignups, arg.Status, arg.Source, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []NewsletterSignup
	for rows.Next() {
		i, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countNewsletterSignups = `-- name: CountNewsletterSignups :one
SELECT count(*) FROM newsletter_signups` + signupFilter

type CountNewsletterSignupsParams struct {
	Status pgtype.Text `json:"status"`
	Source pgtype.Text `json:"source"`
	Search pgtype.Text `json:"search"`
}

func (q *Queries) CountNewsletterSignups(ctx context.Context, arg CountNewsletterSignupsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countNewsletterSignups, arg.Status, arg.Source, arg.Search).Scan(&count)
	return count, err
}

const countSignupsByStatus = `-- name: CountSignupsByStatus :many
SELECT subscription_status, count(*) FROM newsletter_signups
GROUP BY subscription_status`

type CountSignupsByStatusRow struct {
	SubscriptionStatus string `json:"subscription_status"`
	Count              int64  `json:"count"`
}

func (q *Queries) CountSignupsByStatus(ctx context.Context) ([]CountSignupsByStatusRow, error) {
	rows, err := q.db.Query(ctx, countSignupsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountSignupsByStatusRow
	for rows.Next() {
		var i CountSignupsByStatusRow
		if err := rows.Scan(&i.SubscriptionStatus, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSignupsBySource = `-- name: CountSignupsBySource :many
SELECT source, count(*) FROM newsletter_signups
GROUP BY source
ORDER BY count(*) DESC`

type CountSignupsBySourceRow struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

func (q *Queries) CountSignupsBySource(ctx context.Context) ([]CountSignupsBySourceRow, error) {
	rows, err := q.db.Query(ctx, countSignupsBySource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountSignupsBySourceRow
	for rows.Next() {
		var i CountSignupsBySourceRow
		if err := rows.Scan(&i.Source, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
