// Package notify dispatches best-effort transactional email. Failures are
// logged and counted, never returned.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/delivery"
	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/store"
	"github.com/gsarma/courier/internal/worker"
)

// Notifier sends a message without reporting failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, req email.Request)
}

// Recorder counts notification results.
type Recorder interface {
	Notification(kind, result string)
}

const (
	resultSent     = "sent"
	resultRejected = "rejected"
	resultFailed   = "failed"
	resultQueued   = "queued"
)

// Inline sends on the caller's goroutine. The send outlives cancellation of
// ctx so a client disconnect does not abort the retries.
type Inline struct {
	deliverer email.Deliverer
	metrics   Recorder
}

var _ Notifier = (*Inline)(nil)

func NewInline(d email.Deliverer, m Recorder) *Inline {
	return &Inline{deliverer: d, metrics: m}
}

func (n *Inline) Notify(ctx context.Context, req email.Request) {
	ctx = context.WithoutCancel(ctx)
	log := logger.From(ctx).With(
		zap.String("kind", string(req.Kind())),
		logger.Email(req.Recipient()),
	)

	out, err := n.deliverer.Send(ctx, req)
	switch {
	case err != nil:
		log.Error("email delivery failed", zap.Error(err))
		n.record(req.Kind(), resultFailed)
	case !out.Success:
		log.Warn("email service rejected message", zap.String("reason", out.Error))
		n.record(req.Kind(), resultRejected)
	default:
		log.Info("email sent", zap.String("message_id", out.MessageID))
		n.record(req.Kind(), resultSent)
	}
}

func (n *Inline) record(kind email.Kind, result string) {
	if n.metrics != nil {
		n.metrics.Notification(string(kind), result)
	}
}

// JobStore persists queued email jobs.
type JobStore interface {
	CreateEmailJob(ctx context.Context, arg store.CreateEmailJobParams) (store.EmailJob, error)
}

// DefaultMaxAttempts bounds how often the worker retries a queued email.
const DefaultMaxAttempts = 5

// Queue stores the request as an email job for the worker, keeping delivery
// off the request path.
type Queue struct {
	store       JobStore
	maxAttempts int32
	metrics     Recorder
}

var _ Notifier = (*Queue)(nil)

func NewQueue(s JobStore, maxAttempts int32, m Recorder) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Queue{store: s, maxAttempts: maxAttempts, metrics: m}
}

func (q *Queue) Notify(ctx context.Context, req email.Request) {
	log := logger.From(ctx).With(
		zap.String("kind", string(req.Kind())),
		logger.Email(req.Recipient()),
	)

	payload, err := json.Marshal(req)
	if err != nil {
		log.Error("marshal email job", zap.Error(err))
		q.record(req.Kind(), resultFailed)
		return
	}

	job, err := q.store.CreateEmailJob(context.WithoutCancel(ctx), store.CreateEmailJobParams{
		Kind:        string(req.Kind()),
		Payload:     payload,
		MaxAttempts: q.maxAttempts,
	})
	if err != nil {
		log.Error("enqueue email job", zap.Error(err))
		q.record(req.Kind(), resultFailed)
		return
	}
	log.Debug("email job queued", zap.String("job_id", job.ID.String()))
	q.record(req.Kind(), resultQueued)
}

func (q *Queue) record(kind email.Kind, result string) {
	if q.metrics != nil {
		q.metrics.Notification(string(kind), result)
	}
}

// Executor delivers queued email jobs for the worker.
type Executor struct {
	deliverer email.Deliverer
}

var _ worker.JobExecutor = (*Executor)(nil)

func NewExecutor(d email.Deliverer) *Executor {
	return &Executor{deliverer: d}
}

func (e *Executor) ExecuteJob(ctx context.Context, kind string, payload json.RawMessage) error {
	req, err := email.Decode(email.Kind(kind), payload)
	if err != nil {
		return worker.Permanent(err)
	}

	out, err := e.deliverer.Send(ctx, req)
	if err != nil {
		var se *delivery.StatusError
		if errors.As(err, &se) && se.Permanent() {
			return worker.Permanent(err)
		}
		return err
	}
	if !out.Success {
		return fmt.Errorf("email service rejected %s: %s", kind, out.Error)
	}
	return nil
}
