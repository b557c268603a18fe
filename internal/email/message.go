package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind names one transactional message type.
type Kind string

const (
	KindContactWelcome         Kind = "contact_welcome"
	KindAdminNotification      Kind = "admin_notification"
	KindNewsletterVerification Kind = "newsletter_verification"
	KindNewsletterWelcome      Kind = "newsletter_welcome"
)

// Request is a structured email delivery request. Each implementation maps to
// exactly one mail-service endpoint and one template.
type Request interface {
	Kind() Kind
	// Recipient is the address the message is about. For admin
	// notifications that is the submitter, not the admin inbox.
	Recipient() string
}

// ContactWelcome thanks a visitor for a contact form submission.
type ContactWelcome struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (ContactWelcome) Kind() Kind          { return KindContactWelcome }
func (r ContactWelcome) Recipient() string { return r.Email }

// AdminNotification tells the site owner about a new contact submission.
type AdminNotification struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Subject      string    `json:"subject"`
	Message      string    `json:"message"`
	SubmissionID string    `json:"submissionId"`
	CreatedAt    time.Time `json:"createdAt"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
}

func (AdminNotification) Kind() Kind          { return KindAdminNotification }
func (r AdminNotification) Recipient() string { return r.Email }

// NewsletterVerification carries the raw token the subscriber must present.
type NewsletterVerification struct {
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	VerificationToken string `json:"verificationToken"`
	Source            string `json:"source"`
	SourceURL         string `json:"sourceUrl"`
}

func (NewsletterVerification) Kind() Kind          { return KindNewsletterVerification }
func (r NewsletterVerification) Recipient() string { return r.Email }

// NewsletterWelcome is sent once a subscription becomes active.
type NewsletterWelcome struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Source    string `json:"source"`
	SourceURL string `json:"sourceUrl"`
}

func (NewsletterWelcome) Kind() Kind          { return KindNewsletterWelcome }
func (r NewsletterWelcome) Recipient() string { return r.Email }

// MarshalJSON always emits an empty verificationToken; the mail service
// shares one payload shape between verification and welcome messages.
func (r NewsletterWelcome) MarshalJSON() ([]byte, error) {
	type plain NewsletterWelcome
	return json.Marshal(struct {
		plain
		VerificationToken string `json:"verificationToken"`
	}{plain: plain(r)})
}

// Outcome is the mail service's answer to a send.
type Outcome struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Deliverer sends a Request. A returned error means delivery failed for good;
// retries, if any, have already happened.
type Deliverer interface {
	Send(ctx context.Context, req Request) (Outcome, error)
}

var endpoints = map[Kind]string{
	KindContactWelcome:         "/api/v1/contact/welcome",
	KindAdminNotification:      "/api/v1/contact/admin-notification",
	KindNewsletterVerification: "/api/v1/newsletter/verification",
	KindNewsletterWelcome:      "/api/v1/newsletter/welcome",
}

// Endpoint returns the mail-service path for kind.
func Endpoint(kind Kind) (string, error) {
	ep, ok := endpoints[kind]
	if !ok {
		return "", fmt.Errorf("unknown email kind %q", kind)
	}
	return ep, nil
}

// Decode rebuilds a Request from its JSON payload, as stored in email_jobs.
func Decode(kind Kind, payload []byte) (Request, error) {
	var (
		req Request
		err error
	)
	switch kind {
	case KindContactWelcome:
		var r ContactWelcome
		err = json.Unmarshal(payload, &r)
		req = r
	case KindAdminNotification:
		var r AdminNotification
		err = json.Unmarshal(payload, &r)
		req = r
	case KindNewsletterVerification:
		var r NewsletterVerification
		err = json.Unmarshal(payload, &r)
		req = r
	case KindNewsletterWelcome:
		var r NewsletterWelcome
		err = json.Unmarshal(payload, &r)
		req = r
	default:
		return nil, fmt.Errorf("unknown email kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return req, nil
}
