package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-mail/mail"
)

func TestSendGridProvider_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sg-key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "sg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewSendGridProvider(SendGridConfig{APIKey: "sg-key", URL: srv.URL}, srv.Client())
	id, err := p.Send(context.Background(), Message{To: []string{"a@b.com"}, From: "f@x.com", Subject: "S", Body: "b", HTML: "<b>b</b>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "sg-1" {
		t.Errorf("id = %q", id)
	}
	if content, _ := got["content"].([]any); len(content) != 2 {
		t.Errorf("content = %v", got["content"])
	}
}

func TestSendGridProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewSendGridProvider(SendGridConfig{APIKey: "bad", URL: srv.URL}, srv.Client())
	if _, err := p.Send(context.Background(), Message{To: []string{"a@b.com"}}); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestSMTPProvider_BuildsMessage(t *testing.T) {
	p := NewSMTPProvider(SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "u", Password: "p", SSL: true})

	var (
		dialer *mail.Dialer
		sent   *mail.Message
	)
	p.send = func(d *mail.Dialer, m ...*mail.Message) error {
		dialer, sent = d, m[0]
		return nil
	}

	if _, err := p.Send(context.Background(), Message{To: []string{"a@b.com"}, From: "f@x.com", Subject: "Hello", Body: "b"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !dialer.SSL || dialer.Host != "smtp.example.com" || dialer.Port != 465 {
		t.Errorf("dialer = %+v", dialer)
	}
	if dialer.TLSConfig == nil || dialer.TLSConfig.ServerName != "smtp.example.com" {
		t.Errorf("tls config = %+v", dialer.TLSConfig)
	}
	if got := sent.GetHeader("Subject"); len(got) != 1 || got[0] != "Hello" {
		t.Errorf("subject header = %v", got)
	}
}

func TestSMTPProvider_WrapsDialError(t *testing.T) {
	p := NewSMTPProvider(SMTPConfig{Host: "smtp.example.com", Port: 587})
	boom := errors.New("connection refused")
	p.send = func(*mail.Dialer, ...*mail.Message) error { return boom }

	if _, err := p.Send(context.Background(), Message{To: []string{"a@b.com"}, From: "f@x.com"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
