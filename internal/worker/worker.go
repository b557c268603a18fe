package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/store"
)

// JobExecutor executes a single job by kind and payload.
type JobExecutor interface {
	ExecuteJob(ctx context.Context, kind string, payload json.RawMessage) error
}

// JobStore is the slice of store.Querier the worker needs.
type JobStore interface {
	ClaimNextEmailJob(ctx context.Context) (store.EmailJob, error)
	UpdateEmailJobStatus(ctx context.Context, arg store.UpdateEmailJobStatusParams) (store.EmailJob, error)
}

// Recorder counts job outcomes.
type Recorder interface {
	Job(status string)
}

const statusUpdateTimeout = 5 * time.Second

// Worker polls the database for pending email jobs and executes them
// concurrently.
type Worker struct {
	store        JobStore
	executor     JobExecutor
	concurrency  int
	pollInterval time.Duration
	metrics      Recorder
	log          *zap.Logger
}

type Option func(*Worker)

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) { w.pollInterval = d }
}

func WithMetrics(r Recorder) Option {
	return func(w *Worker) { w.metrics = r }
}

func New(s JobStore, executor JobExecutor, concurrency int, opts ...Option) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	w := &Worker{
		store:        s,
		executor:     executor,
		concurrency:  concurrency,
		pollInterval: 500 * time.Millisecond,
		log:          logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start spawns concurrency goroutines that each poll for jobs every
// pollInterval. It blocks until ctx is cancelled and every loop has returned.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	w.log.Info("worker started", zap.Int("concurrency", w.concurrency))
	<-ctx.Done()
	wg.Wait()
	w.log.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

// Backoff is the delay before retrying a job that failed on the given attempt.
func Backoff(attempt int32) time.Duration {
	return time.Duration(int64(1)<<uint(attempt)) * 10 * time.Second
}

func (w *Worker) processNext(ctx context.Context) {
	job, err := w.store.ClaimNextEmailJob(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || ctx.Err() != nil {
			return
		}
		w.log.Error("claim email job", zap.Error(err))
		return
	}

	log := w.log.With(
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Kind),
		zap.Int32("attempt", job.Attempt),
	)
	execErr := w.executor.ExecuteJob(logger.ToContext(ctx, log), job.Kind, json.RawMessage(job.Payload))

	now := time.Now()
	params := store.UpdateEmailJobStatusParams{ID: job.ID, RunAt: job.RunAt}
	switch {
	case execErr != nil && ctx.Err() != nil:
		// Interrupted by shutdown; hand the job back for the next run.
		params.Status = store.JobStatusPending
		params.Error = pgtype.Text{String: execErr.Error(), Valid: true}
		params.RunAt = now
		log.Warn("email job interrupted by shutdown, requeued", zap.Error(execErr))
	case execErr == nil:
		params.Status = store.JobStatusCompleted
		params.CompletedAt = &now
	case job.Attempt < job.MaxAttempts && !IsPermanent(execErr):
		params.Status = store.JobStatusPending
		params.Error = pgtype.Text{String: execErr.Error(), Valid: true}
		params.RunAt = now.Add(Backoff(job.Attempt))
		log.Warn("email job failed, will retry", zap.Error(execErr), zap.Time("run_at", params.RunAt))
	default:
		params.Status = store.JobStatusFailed
		params.Error = pgtype.Text{String: execErr.Error(), Valid: true}
		log.Error("email job failed permanently", zap.Error(execErr))
	}

	// The outcome must be recorded even when ctx is already cancelled.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusUpdateTimeout)
	defer cancel()
	if _, err := w.store.UpdateEmailJobStatus(updateCtx, params); err != nil {
		log.Error("update email job status", zap.Error(err), zap.String("status", params.Status))
		return
	}
	if w.metrics != nil {
		w.metrics.Job(params.Status)
	}
}
