package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/email"
)

// flakyServer fails the first `failures` POSTs with 503 and then answers
// with a success outcome.
func flakyServer(t *testing.T, failures int32) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= failures {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"messageId":"m-1"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	c, err := New(cfg, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, err)
	return c
}

type recordedWait struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedWait) wait(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func TestSend_Headers(t *testing.T) {
	var got *http.Request
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"success":true,"messageId":"abc"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL + "/", APIKey: "k-123"})
	out, err := c.Send(context.Background(), email.NewsletterVerification{Email: "a@b.com", VerificationToken: "tok"})
	require.NoError(t, err)

	assert.Equal(t, email.Outcome{Success: true, MessageID: "abc"}, out)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/v1/newsletter/verification", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "k-123", got.Header.Get("X-API-Key"))
	assert.Equal(t, "tok", body["verificationToken"])
}

func TestSend_FailTwiceThenSucceed_BackoffSchedule(t *testing.T) {
	srv, hits := flakyServer(t, 2)
	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 3, RetryDelay: 100 * time.Millisecond})
	rw := &recordedWait{}
	c.wait = rw.wait

	out, err := c.Send(context.Background(), email.ContactWelcome{Email: "a@b.com"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rw.delays)
}

func TestSend_FailTwiceThenSucceed_Elapsed(t *testing.T) {
	srv, _ := flakyServer(t, 2)
	delay := 40 * time.Millisecond
	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 3, RetryDelay: delay})

	start := time.Now()
	_, err := c.Send(context.Background(), email.ContactWelcome{Email: "a@b.com"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	want := delay * (1 + 2)
	assert.GreaterOrEqual(t, elapsed, want)
	assert.Less(t, elapsed, want+time.Second)
}

func TestSend_AlwaysFails_ExactAttempts(t *testing.T) {
	srv, hits := flakyServer(t, 1000)
	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 4, RetryDelay: time.Millisecond})
	rw := &recordedWait{}
	c.wait = rw.wait

	_, err := c.Send(context.Background(), email.ContactWelcome{Email: "a@b.com"})
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 4, derr.Attempts)
	assert.Equal(t, "/api/v1/contact/welcome", derr.Endpoint)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)

	assert.Equal(t, int32(4), atomic.LoadInt32(hits))
	assert.Len(t, rw.delays, 3, "no wait after the final attempt")
}

func TestSend_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 3, RetryDelay: time.Millisecond})
	_, err := c.Send(context.Background(), email.ContactWelcome{})

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSend_TooManyRequestsIsRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	_, err := c.Send(context.Background(), email.ContactWelcome{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSend_UndecodableBodyIsAFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 2, RetryDelay: time.Millisecond})
	_, err := c.Send(context.Background(), email.ContactWelcome{})
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSend_PerAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond, RetryAttempts: 2, RetryDelay: time.Millisecond})
	_, err := c.Send(context.Background(), email.ContactWelcome{})

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Attempts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSend_ContextCanceledDuringBackoff(t *testing.T) {
	srv, hits := flakyServer(t, 1000)
	c := newTestClient(t, Config{BaseURL: srv.URL, RetryAttempts: 5, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.Send(ctx, email.ContactWelcome{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestSendEndpoint_RawPayload(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"success":false,"error":"suppressed"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	out, err := c.SendEndpoint(context.Background(), "/api/v1/custom", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/custom", path)
	assert.False(t, out.Success)
	assert.Equal(t, "suppressed", out.Error)
}

type countingRecorder struct {
	mu      sync.Mutex
	results []string
}

func (r *countingRecorder) ObserveDelivery(_, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestSend_RecordsEveryAttempt(t *testing.T) {
	srv, _ := flakyServer(t, 1)
	rec := &countingRecorder{}
	c := newTestClient(t, Config{BaseURL: srv.URL, RetryDelay: time.Millisecond}, WithMetrics(rec))

	_, err := c.Send(context.Background(), email.ContactWelcome{})
	require.NoError(t, err)
	assert.Equal(t, []string{"failure", "success"}, rec.results)
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	assert.True(t, c.CheckHealth(context.Background()))
}

func TestCheckHealth_UnhealthyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	assert.False(t, c.CheckHealth(context.Background()))
}

func TestCheckHealth_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := newTestClient(t, Config{BaseURL: addr, HealthTimeout: time.Second})
	assert.False(t, c.CheckHealth(context.Background()))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://x", RetryAttempts: -1})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://x", RetryAttempts: MaxRetryAttempts + 1})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRetryAttempts, c.cfg.RetryAttempts)
	assert.Equal(t, DefaultRetryDelay, c.cfg.RetryDelay)
	assert.Equal(t, DefaultHealthTimeout, c.cfg.HealthTimeout)
}

func TestBackoff(t *testing.T) {
	cfg := Config{RetryDelay: time.Second}
	assert.Equal(t, time.Second, cfg.backoff(1))
	assert.Equal(t, 2*time.Second, cfg.backoff(2))
	assert.Equal(t, 4*time.Second, cfg.backoff(3))

	for _, attempt := range []int{40, 64, 100, 1 << 20} {
		assert.Positive(t, cfg.backoff(attempt), attempt)
	}
	assert.Equal(t, time.Duration(math.MaxInt64), Config{RetryDelay: time.Hour}.backoff(64))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))

	// "é" is two bytes; a cut inside it backs off to the rune start.
	got := truncate("aé bc", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("日本", 200), 512)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 512+len("..."))
}

func TestStatusError_Permanent(t *testing.T) {
	cases := map[int]bool{400: true, 401: true, 404: true, 422: true, 408: false, 429: false, 500: false, 503: false}
	for code, want := range cases {
		assert.Equal(t, want, (&StatusError{StatusCode: code}).Permanent(), code)
	}
	assert.True(t, retryable(errors.New("connection reset")))
}
