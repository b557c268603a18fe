package email

import "context"

// Message holds the fields needed to send an email.
type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    string   `json:"html,omitempty"`
}

// Provider defines the interface each email provider must implement. The
// returned message ID is empty when the provider does not report one.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}
