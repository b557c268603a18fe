package email_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gsarma/courier/internal/email"
)

func jsonKeys(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func TestRequests_JSONKeys(t *testing.T) {
	cases := []struct {
		req  email.Request
		keys []string
	}{
		{email.ContactWelcome{}, []string{"name", "email", "subject", "message"}},
		{email.AdminNotification{}, []string{"name", "email", "subject", "message", "submissionId", "createdAt", "ipAddress", "userAgent"}},
		{email.NewsletterVerification{}, []string{"email", "firstName", "lastName", "verificationToken", "source", "sourceUrl"}},
		{email.NewsletterWelcome{}, []string{"email", "firstName", "lastName", "verificationToken", "source", "sourceUrl"}},
	}
	for _, tc := range cases {
		raw := jsonKeys(t, tc.req)
		for _, key := range tc.keys {
			if _, ok := raw[key]; !ok {
				t.Errorf("%s: expected JSON key %q to be present", tc.req.Kind(), key)
			}
		}
		if len(raw) != len(tc.keys) {
			t.Errorf("%s: got %d keys, want %d", tc.req.Kind(), len(raw), len(tc.keys))
		}
	}
}

func TestNewsletterWelcome_TokenAlwaysEmpty(t *testing.T) {
	raw := jsonKeys(t, email.NewsletterWelcome{Email: "a@b.com", FirstName: "Ada"})
	if raw["verificationToken"] != "" {
		t.Errorf("verificationToken = %v, want empty string", raw["verificationToken"])
	}
	if raw["firstName"] != "Ada" {
		t.Errorf("firstName = %v", raw["firstName"])
	}
}

func TestEndpoint(t *testing.T) {
	want := map[email.Kind]string{
		email.KindContactWelcome:         "/api/v1/contact/welcome",
		email.KindAdminNotification:      "/api/v1/contact/admin-notification",
		email.KindNewsletterVerification: "/api/v1/newsletter/verification",
		email.KindNewsletterWelcome:      "/api/v1/newsletter/welcome",
	}
	for kind, path := range want {
		got, err := email.Endpoint(kind)
		if err != nil || got != path {
			t.Errorf("Endpoint(%s) = %q, %v; want %q", kind, got, err, path)
		}
	}
	if _, err := email.Endpoint("carrier_pigeon"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDecode_RestoresQueuedRequest(t *testing.T) {
	original := email.AdminNotification{
		Name:         "Ada",
		Email:        "ada@example.com",
		Subject:      "Hi",
		Message:      "Hello there, long enough",
		SubmissionID: "doc-1",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		IPAddress:    "10.0.0.1",
		UserAgent:    "curl/8",
	}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := email.Decode(email.KindAdminNotification, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	an, ok := got.(email.AdminNotification)
	if !ok {
		t.Fatalf("Decode returned %T", got)
	}
	if !an.CreatedAt.Equal(original.CreatedAt) || an.SubmissionID != "doc-1" {
		t.Errorf("decoded %+v", an)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := email.Decode("unknown", []byte(`{}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := email.Decode(email.KindContactWelcome, []byte(`{`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}
