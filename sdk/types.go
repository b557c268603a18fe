package courier

import "time"

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	EmailService string `json:"emailService,omitempty"`
}

// MessageResponse is a generic {"message": "..."} response.
type MessageResponse struct {
	Message string `json:"message"`
}

// --- Newsletter ---

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

// SubscribeRequest starts a double opt-in subscription. Only Email is required.
type SubscribeRequest struct {
	Email       string       `json:"email"`
	FirstName   string       `json:"firstName,omitempty"`
	LastName    string       `json:"lastName,omitempty"`
	Source      string       `json:"source,omitempty"`
	SourceURL   string       `json:"sourceUrl,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	Location    *Location    `json:"location,omitempty"`
}

// SubscribeResponse is returned by Subscribe. The subscription stays
// pending until the emailed token is verified.
type SubscribeResponse struct {
	Message string `json:"message"`
	Data    struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Status   string `json:"status"`
		Verified bool   `json:"verified"`
	} `json:"data"`
}

type Consent struct {
	MarketingConsent bool      `json:"marketingConsent"`
	ConsentDate      time.Time `json:"consentDate"`
	ConsentVersion   string    `json:"consentVersion"`
	ConsentSource    string    `json:"consentSource"`
	OptInMethod      string    `json:"optInMethod"`
	DoubleOptIn      bool      `json:"doubleOptIn"`
}

// Signup is a newsletter subscription record.
type Signup struct {
	ID                  string      `json:"id"`
	Email               string      `json:"email"`
	FirstName           string      `json:"firstName"`
	LastName            string      `json:"lastName"`
	SubscriptionStatus  string      `json:"subscriptionStatus"`
	Verified            bool        `json:"verified"`
	VerificationExpires *time.Time  `json:"verificationExpires,omitempty"`
	Source              string      `json:"source"`
	SourceURL           string      `json:"sourceUrl"`
	Consent             Consent     `json:"consent"`
	Preferences         Preferences `json:"preferences"`
	Location            Location    `json:"location"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// SignupResponse wraps a signup returned by Verify and Unsubscribe.
type SignupResponse struct {
	Message string `json:"message"`
	Data    Signup `json:"data"`
}

// --- Contact ---

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactSubmission struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// --- Admin ---

// ListOptions filters Admin.List. Zero values mean "any".
type ListOptions struct {
	Page     int
	PageSize int
	Status   string
	Source   string
	Search   string
}

type SignupPage struct {
	Data      []Signup `json:"data"`
	Page      int      `json:"page"`
	PageSize  int      `json:"pageSize"`
	PageCount int      `json:"pageCount"`
	Total     int64    `json:"total"`
}

type Stats struct {
	Total        int64            `json:"total"`
	Active       int64            `json:"active"`
	Pending      int64            `json:"pending"`
	Unsubscribed int64            `json:"unsubscribed"`
	BySource     map[string]int64 `json:"bySource"`
}
