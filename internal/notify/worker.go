package notify

import (
	"context"
	"log/slog"
	"time"

	"healthfirst/internal/platform/metrics"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = time.Minute
)

// Worker drains jobs from a ChannelDispatcher, renders them, and delivers
// through a Mailer. Delivery is retried with a fixed backoff; exhausting the
// retries drops the job with an error log, never propagating back to the
// request that enqueued it.
type Worker struct {
	jobs     <-chan Job
	mailer   Mailer
	renderer Renderer

	maxAttempts int
	backoff     time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) { w.metrics = m }
}

// WithRetryPolicy overrides the delivery retry policy; tests use a short
// backoff.
func WithRetryPolicy(maxAttempts int, backoff time.Duration) WorkerOption {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
		w.backoff = backoff
	}
}

func NewWorker(jobs <-chan Job, mailer Mailer, renderer Renderer, opts ...WorkerOption) *Worker {
	w := &Worker{
		jobs:        jobs,
		mailer:      mailer,
		renderer:    renderer,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultRetryBackoff,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	msg, err := w.renderer.Render(job)
	if err != nil {
		w.logger.ErrorContext(ctx, "dropping unrenderable notification job",
			"job_id", job.ID, "kind", job.Kind, "error", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = w.mailer.Send(ctx, msg)
		if lastErr == nil {
			w.logger.InfoContext(ctx, "notification delivered",
				"job_id", job.ID, "kind", job.Kind, "attempt", attempt)
			return
		}
		if attempt < w.maxAttempts && !w.sleep(ctx) {
			break
		}
	}

	if w.metrics != nil {
		w.metrics.EmailSendFailures.Inc()
	}
	w.logger.ErrorContext(ctx, "notification delivery failed, dropping job",
		"job_id", job.ID, "kind", job.Kind, "attempts", w.maxAttempts, "error", lastErr)
}

func (w *Worker) sleep(ctx context.Context) bool {
	if w.backoff <= 0 {
		return true
	}
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
