package subscription

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gsarma/courier/internal/store"
)

type Status string

const (
	StatusPending      Status = store.SignupStatusPending
	StatusActive       Status = store.SignupStatusActive
	StatusUnsubscribed Status = store.SignupStatusUnsubscribed
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusUnsubscribed:
		return true
	}
	return false
}

// Signup is one newsletter subscription. The verification token itself is
// never part of it.
type Signup struct {
	ID                  uuid.UUID   `json:"id"`
	Email               string      `json:"email"`
	FirstName           string      `json:"firstName"`
	LastName            string      `json:"lastName"`
	Status              Status      `json:"subscriptionStatus"`
	Verified            bool        `json:"verified"`
	VerificationExpires *time.Time  `json:"verificationExpires"`
	Source              string      `json:"source"`
	SourceURL           string      `json:"sourceUrl"`
	IPAddress           string      `json:"ipAddress"`
	UserAgent           string      `json:"userAgent"`
	Consent             Consent     `json:"consent"`
	Preferences         Preferences `json:"preferences"`
	Location            Location    `json:"location"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

type Consent struct {
	MarketingConsent bool      `json:"marketingConsent"`
	ConsentDate      time.Time `json:"consentDate"`
	ConsentVersion   string    `json:"consentVersion"`
	ConsentSource    string    `json:"consentSource"`
	IPAddress        string    `json:"ipAddress"`
	UserAgent        string    `json:"userAgent"`
	OptInMethod      string    `json:"optInMethod"`
	DoubleOptIn      bool      `json:"doubleOptIn"`
}

type Preferences struct {
	Frequency        string `json:"frequency"`
	Format           string `json:"format"`
	Language         string `json:"language"`
	IncludeBlogPosts bool   `json:"includeBlogPosts"`
}

type Location struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// SignupInput is what a visitor submits. Empty fields take defaults.
type SignupInput struct {
	Email       string
	FirstName   string
	LastName    string
	Source      string
	SourceURL   string
	IPAddress   string
	UserAgent   string
	Preferences *Preferences
	Location    *Location
}

func defaultPreferences() Preferences {
	return Preferences{
		Frequency:        "weekly",
		Format:           "html",
		Language:         "en",
		IncludeBlogPosts: true,
	}
}

// NormalizeEmail trims and lowercases addr and checks it is a bare address.
func NormalizeEmail(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return "", ErrEmailRequired
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return "", ErrInvalidEmail
	}
	return addr, nil
}

func fromRow(r store.NewsletterSignup) Signup {
	s := Signup{
		ID:                  r.ID,
		Email:               r.Email,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Status:              Status(r.SubscriptionStatus),
		Verified:            r.Verified,
		VerificationExpires: r.VerificationExpires,
		Source:              r.Source,
		SourceURL:           r.SourceUrl,
		IPAddress:           r.IpAddress,
		UserAgent:           r.UserAgent,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	// Metadata is opaque; a malformed blob leaves the zero value.
	_ = json.Unmarshal(r.Consent, &s.Consent)
	_ = json.Unmarshal(r.Preferences, &s.Preferences)
	_ = json.Unmarshal(r.Location, &s.Location)
	return s
}
