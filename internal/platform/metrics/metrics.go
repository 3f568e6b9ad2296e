package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registration pipeline.
// Services accept a nil *Metrics and skip recording, which keeps unit tests
// free of registry bookkeeping.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	RateLimitRejections  prometheus.Counter
	TokensIssued         prometheus.Counter
	TokensRedeemed       prometheus.Counter
	EmailJobsEnqueued    *prometheus.CounterVec
	EmailEnqueueFailures prometheus.Counter
	EmailSendFailures    prometheus.Counter
	DegradedEvents       prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on an explicit registry, used by tests.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfirst_registrations_total",
			Help: "Registration attempts by record kind and outcome",
		}, []string{"kind", "outcome"}),
		RateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_rate_limit_rejections_total",
			Help: "Requests rejected by the registration rate limiter",
		}),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_verification_tokens_issued_total",
			Help: "Email verification tokens issued",
		}),
		TokensRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_verification_tokens_redeemed_total",
			Help: "Email verification tokens redeemed successfully",
		}),
		EmailJobsEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfirst_email_jobs_enqueued_total",
			Help: "Notification jobs handed to the dispatcher by kind",
		}, []string{"kind"}),
		EmailEnqueueFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_email_enqueue_failures_total",
			Help: "Notification jobs the dispatcher refused to accept",
		}),
		EmailSendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_email_send_failures_total",
			Help: "Notification deliveries that failed after retries",
		}),
		DegradedEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthfirst_degraded_events_total",
			Help: "Backing-store failures handled in degraded mode",
		}),
	}
}
