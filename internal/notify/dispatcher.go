// Package notify is the asynchronous notification pipeline. Services hand
// jobs to a Dispatcher and move on; rendering and delivery happen out of the
// request path. Enqueue failures are surfaced to callers as ordinary errors
// so they can be logged as non-fatal warnings, distinct from delivery
// failures which are retried by the worker.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	pkgerrors "healthfirst/pkg/errors"
	"healthfirst/pkg/platform/sentinel"
)

type JobKind string

const (
	JobVerification JobKind = "verification_email"
	JobWelcome      JobKind = "welcome_email"
	JobAdminNotice  JobKind = "admin_notification"
)

// Job is one unit of notification work.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Kind       JobKind   `json:"kind"`
	RecordID   uuid.UUID `json:"record_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Token      string    `json:"token,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Dispatcher hands a job to the asynchronous pipeline. Implementations must
// return promptly and never wait for delivery.
type Dispatcher interface {
	Enqueue(ctx context.Context, job Job) error
}

// ChannelDispatcher feeds an in-process Worker through a buffered channel.
type ChannelDispatcher struct {
	jobs   chan Job
	logger *slog.Logger
}

func NewChannelDispatcher(buffer int, logger *slog.Logger) *ChannelDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelDispatcher{
		jobs:   make(chan Job, buffer),
		logger: logger,
	}
}

// Enqueue is non-blocking: a full queue is reported as an error rather than
// delaying the request path.
func (d *ChannelDispatcher) Enqueue(ctx context.Context, job Job) error {
	job = stamp(job)
	select {
	case d.jobs <- job:
		d.logger.DebugContext(ctx, "notification job enqueued",
			"job_id", job.ID, "kind", job.Kind, "record_id", job.RecordID)
		return nil
	default:
		return pkgerrors.Wrap(sentinel.ErrUnavailable, pkgerrors.CodeUnavailable, "notification queue full")
	}
}

// Jobs exposes the channel consumed by the Worker.
func (d *ChannelDispatcher) Jobs() <-chan Job {
	return d.jobs
}

func stamp(job Job) Job {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	return job
}
