package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/store"
)

type stubStore struct {
	createFn func(ctx context.Context, arg store.CreateContactSubmissionParams) (store.ContactSubmission, error)
	calls    int
}

func (s *stubStore) CreateContactSubmission(ctx context.Context, arg store.CreateContactSubmissionParams) (store.ContactSubmission, error) {
	s.calls++
	if s.createFn != nil {
		return s.createFn(ctx, arg)
	}
	return store.ContactSubmission{
		ID:         uuid.New(),
		DocumentID: arg.DocumentID,
		Name:       arg.Name,
		Email:      arg.Email,
		Subject:    arg.Subject,
		Message:    arg.Message,
		IpAddress:  arg.IpAddress,
		UserAgent:  arg.UserAgent,
		CreatedAt:  arg.CreatedAt,
	}, nil
}

var _ Store = (*stubStore)(nil)

type recordingNotifier struct {
	sent []email.Request
}

func (r *recordingNotifier) Notify(_ context.Context, req email.Request) {
	r.sent = append(r.sent, req)
}

func validInput() Input {
	return Input{
		Name:      "Grace Hopper",
		Email:     "Grace@Example.com",
		Subject:   "Hello",
		Message:   "I would like to know more about your service.",
		IPAddress: "192.0.2.1",
		UserAgent: "test-agent",
	}
}

func TestSubmit_StoresAndNotifiesBoth(t *testing.T) {
	st := &stubStore{}
	n := &recordingNotifier{}
	svc := NewService(st, n)

	sub, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Email != "grace@example.com" {
		t.Errorf("expected normalized email, got %q", sub.Email)
	}
	if _, err := uuid.Parse(sub.DocumentID); err != nil {
		t.Errorf("documentId should be a uuid, got %q", sub.DocumentID)
	}
	if len(n.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(n.sent))
	}
	if n.sent[0].Kind() != email.KindContactWelcome {
		t.Errorf("first notification should be the welcome, got %s", n.sent[0].Kind())
	}
	admin, ok := n.sent[1].(email.AdminNotification)
	if !ok {
		t.Fatalf("second notification should be AdminNotification, got %T", n.sent[1])
	}
	if admin.SubmissionID != sub.DocumentID {
		t.Errorf("admin notification should reference the submission, got %q", admin.SubmissionID)
	}
	if admin.IPAddress != "192.0.2.1" || admin.UserAgent != "test-agent" {
		t.Errorf("request metadata not forwarded: %+v", admin)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   error
	}{
		{"missing name", func(in *Input) { in.Name = " " }, ErrMissingFields},
		{"missing subject", func(in *Input) { in.Subject = "" }, ErrMissingFields},
		{"missing message", func(in *Input) { in.Message = "" }, ErrMissingFields},
		{"bad email", func(in *Input) { in.Email = "grace-at-example" }, ErrInvalidEmail},
		{"short message", func(in *Input) { in.Message = "too short" }, ErrMessageLength},
		{"long message", func(in *Input) { in.Message = strings.Repeat("x", MaxMessageLength+1) }, ErrMessageLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &stubStore{}
			n := &recordingNotifier{}
			in := validInput()
			tt.mutate(&in)

			_, err := NewService(st, n).Submit(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if st.calls != 0 || len(n.sent) != 0 {
				t.Error("invalid input must not be stored or notified")
			}
		})
	}
}

func TestSubmit_BoundaryLengths(t *testing.T) {
	for _, n := range []int{MinMessageLength, MaxMessageLength} {
		in := validInput()
		in.Message = strings.Repeat("é", n)
		if _, err := NewService(&stubStore{}, &recordingNotifier{}).Submit(context.Background(), in); err != nil {
			t.Errorf("message of %d chars should be accepted: %v", n, err)
		}
	}
}

func TestSubmit_StoreError(t *testing.T) {
	boom := errors.New("db down")
	st := &stubStore{createFn: func(context.Context, store.CreateContactSubmissionParams) (store.ContactSubmission, error) {
		return store.ContactSubmission{}, boom
	}}
	n := &recordingNotifier{}

	_, err := NewService(st, n).Submit(context.Background(), validInput())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Error("nothing should be sent when the submission was not stored")
	}
}
