package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/notify"
	"github.com/gsarma/courier/internal/store"
)

// TokenTTL is how long a verification token stays redeemable.
const TokenTTL = 24 * time.Hour

// Store is the persistence the state machine relies on.
type Store interface {
	CreateNewsletterSignup(ctx context.Context, arg store.CreateNewsletterSignupParams) (store.NewsletterSignup, error)
	GetNewsletterSignup(ctx context.Context, id uuid.UUID) (store.NewsletterSignup, error)
	GetNewsletterSignupByTokenHash(ctx context.Context, tokenHash string) (store.NewsletterSignup, error)
	VerifyNewsletterSignup(ctx context.Context, arg store.VerifyNewsletterSignupParams) (store.NewsletterSignup, error)
	CountPendingByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	UnsubscribeNewsletterSignup(ctx context.Context, arg store.UnsubscribeNewsletterSignupParams) (store.NewsletterSignup, error)
	DeleteNewsletterSignup(ctx context.Context, id uuid.UUID) (int64, error)
	ListNewsletterSignups(ctx context.Context, arg store.ListNewsletterSignupsParams) ([]store.NewsletterSignup, error)
	CountNewsletterSignups(ctx context.Context, arg store.CountNewsletterSignupsParams) (int64, error)
	CountSignupsByStatus(ctx context.Context) ([]store.CountSignupsByStatusRow, error)
	CountSignupsBySource(ctx context.Context) ([]store.CountSignupsBySourceRow, error)
}

// Recorder counts state transitions.
type Recorder interface {
	SignupTransition(transition string)
}

// Service owns the newsletter signup lifecycle:
//
//	pending --verify--> active
//	pending|active --unsubscribe--> unsubscribed
//
// Each transition is a single conditional write in the store, so concurrent
// callers are serialized there and no locks are held here.
type Service struct {
	store    Store
	notifier notify.Notifier
	metrics  Recorder
	now      func() time.Time
	newToken func() (string, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func NewService(st Store, n notify.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: n,
		now:      time.Now,
		newToken: generateToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a pending signup and sends the verification email. The
// raw token is returned for the caller's use (tests, resend tooling); it is
// not stored.
func (s *Service) Create(ctx context.Context, in SignupInput) (Signup, string, error) {
	addr, err := NormalizeEmail(in.Email)
	if err != nil {
		return Signup{}, "", err
	}

	token, err := s.newToken()
	if err != nil {
		return Signup{}, "", err
	}

	now := s.now().UTC()
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "api"
	}

	consent, err := json.Marshal(Consent{
		MarketingConsent: true,
		ConsentDate:      now,
		ConsentVersion:   "1.0",
		ConsentSource:    source,
		IPAddress:        in.IPAddress,
		UserAgent:        in.UserAgent,
		OptInMethod:      "form_submission",
		DoubleOptIn:      true,
	})
	if err != nil {
		return Signup{}, "", fmt.Errorf("marshal consent: %w", err)
	}
	prefs := defaultPreferences()
	if in.Preferences != nil {
		prefs = *in.Preferences
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return Signup{}, "", fmt.Errorf("marshal preferences: %w", err)
	}
	var loc Location
	if in.Location != nil {
		loc = *in.Location
	}
	locJSON, err := json.Marshal(loc)
	if err != nil {
		return Signup{}, "", fmt.Errorf("marshal location: %w", err)
	}

	row, err := s.store.CreateNewsletterSignup(ctx, store.CreateNewsletterSignupParams{
		Email:                 addr,
		FirstName:             strings.TrimSpace(in.FirstName),
		LastName:              strings.TrimSpace(in.LastName),
		VerificationTokenHash: hashToken(token),
		VerificationExpires:   now.Add(TokenTTL),
		Source:                source,
		SourceUrl:             in.SourceURL,
		IpAddress:             in.IPAddress,
		UserAgent:             in.UserAgent,
		Consent:               consent,
		Preferences:           prefsJSON,
		Location:              locJSON,
		CreatedAt:             now,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Signup{}, "", ErrDuplicateEmail
		}
		return Signup{}, "", fmt.Errorf("create signup: %w", err)
	}

	signup := fromRow(row)
	s.record("created")
	logger.From(ctx).Info("newsletter signup created",
		zap.String("signup_id", signup.ID.String()),
		logger.Email(signup.Email),
		zap.String("source", signup.Source),
	)

	s.notifier.Notify(ctx, email.NewsletterVerification{
		Email:             signup.Email,
		FirstName:         signup.FirstName,
		LastName:          signup.LastName,
		VerificationToken: token,
		Source:            signup.Source,
		SourceURL:         signup.SourceURL,
	})
	return signup, token, nil
}

// Verify redeems token. Failures are always a *TokenError.
func (s *Service) Verify(ctx context.Context, token string) (Signup, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Signup{}, &TokenError{Reason: ReasonInvalid}
	}

	hash := hashToken(token)
	now := s.now().UTC()
	log := logger.From(ctx)

	row, err := s.store.VerifyNewsletterSignup(ctx, store.VerifyNewsletterSignupParams{
		VerificationTokenHash: hash,
		Now:                   now,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			tokErr := s.classify(ctx, hash, now)
			s.record("verify_rejected")
			log.Info("verification token rejected", zap.String("reason", string(tokErr.Reason)))
			return Signup{}, tokErr
		}
		return Signup{}, fmt.Errorf("verify signup: %w", err)
	}

	signup := fromRow(row)
	s.record("verified")
	log.Info("newsletter signup verified",
		zap.String("signup_id", signup.ID.String()),
		logger.Email(signup.Email),
	)

	if n, err := s.store.CountPendingByTokenHash(ctx, hash); err != nil {
		log.Warn("token collision check failed", zap.Error(err))
	} else if n > 0 {
		log.Error("data integrity: verification token shared by multiple signups",
			zap.String("verified_signup_id", signup.ID.String()),
			zap.Int64("other_pending", n),
		)
	}

	s.notifier.Notify(ctx, email.NewsletterWelcome{
		Email:     signup.Email,
		FirstName: signup.FirstName,
		LastName:  signup.LastName,
		Source:    signup.Source,
		SourceURL: signup.SourceURL,
	})
	return signup, nil
}

// classify explains a failed verification. Lookup errors degrade to
// ReasonInvalid since the caller already failed.
func (s *Service) classify(ctx context.Context, hash string, now time.Time) *TokenError {
	row, err := s.store.GetNewsletterSignupByTokenHash(ctx, hash)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.From(ctx).Warn("classify verification token", zap.Error(err))
		}
		return &TokenError{Reason: ReasonInvalid}
	}
	if row.UsedTokenHash.Valid && row.UsedTokenHash.String == hash {
		return &TokenError{Reason: ReasonAlreadyUsed}
	}
	if !row.Verified && row.VerificationExpires != nil && !row.VerificationExpires.After(now) {
		return &TokenError{Reason: ReasonExpired}
	}
	return &TokenError{Reason: ReasonInvalid}
}

// Unsubscribe marks the signup for addr as unsubscribed. Repeating it is a
// no-op. Any pending token is revoked.
func (s *Service) Unsubscribe(ctx context.Context, addr string) (Signup, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return Signup{}, ErrEmailRequired
	}

	row, err := s.store.UnsubscribeNewsletterSignup(ctx, store.UnsubscribeNewsletterSignupParams{
		Email: addr,
		Now:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Signup{}, ErrNotFound
		}
		return Signup{}, fmt.Errorf("unsubscribe: %w", err)
	}

	s.record("unsubscribed")
	logger.From(ctx).Info("newsletter signup unsubscribed",
		zap.String("signup_id", row.ID.String()),
		logger.Email(row.Email),
	)
	return fromRow(row), nil
}

// Get returns a signup by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Signup, error) {
	row, err := s.store.GetNewsletterSignup(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Signup{}, ErrNotFound
		}
		return Signup{}, fmt.Errorf("get signup: %w", err)
	}
	return fromRow(row), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.store.DeleteNewsletterSignup(ctx, id)
	if err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.record("deleted")
	return nil
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Page     int
	PageSize int
	Status   Status
	Source   string
	Search   string
}

type Page struct {
	Items     []Signup `json:"data"`
	Page      int      `json:"page"`
	PageSize  int      `json:"pageSize"`
	PageCount int      `json:"pageCount"`
	Total     int64    `json:"total"`
}

func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Status != "" && !f.Status.Valid() {
		return Page{}, fmt.Errorf("unknown status %q", f.Status)
	}

	status := optionalText(string(f.Status))
	source := optionalText(f.Source)
	search := optionalText(f.Search)

	rows, err := s.store.ListNewsletterSignups(ctx, store.ListNewsletterSignupsParams{
		Status: status,
		Source: source,
		Search: search,
		Limit:  int32(f.PageSize),
		Offset: int32((f.Page - 1) * f.PageSize),
	})
	if err != nil {
		return Page{}, fmt.Errorf("list signups: %w", err)
	}
	total, err := s.store.CountNewsletterSignups(ctx, store.CountNewsletterSignupsParams{
		Status: status,
		Source: source,
		Search: search,
	})
	if err != nil {
		return Page{}, fmt.Errorf("count signups: %w", err)
	}

	items := make([]Signup, 0, len(rows))
	for _, r := range rows {
		items = append(items, fromRow(r))
	}
	return Page{
		Items:     items,
		Page:      f.Page,
		PageSize:  f.PageSize,
		PageCount: int((total + int64(f.PageSize) - 1) / int64(f.PageSize)),
		Total:     total,
	}, nil
}

type Stats struct {
	Total        int64            `json:"total"`
	Active       int64            `json:"active"`
	Pending      int64            `json:"pending"`
	Unsubscribed int64            `json:"unsubscribed"`
	BySource     map[string]int64 `json:"bySource"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	byStatus, err := s.store.CountSignupsByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count by status: %w", err)
	}
	bySource, err := s.store.CountSignupsBySource(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count by source: %w", err)
	}

	st := Stats{BySource: make(map[string]int64, len(bySource))}
	for _, r := range byStatus {
		st.Total += r.Count
		switch Status(r.SubscriptionStatus) {
		case StatusActive:
			st.Active = r.Count
		case StatusPending:
			st.Pending = r.Count
		case StatusUnsubscribed:
			st.Unsubscribed = r.Count
		}
	}
	for _, r := range bySource {
		st.BySource[r.Source] = r.Count
	}
	return st, nil
}

func (s *Service) record(transition string) {
	if s.metrics != nil {
		s.metrics.SignupTransition(transition)
	}
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}
