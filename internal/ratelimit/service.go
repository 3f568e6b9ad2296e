// Package ratelimit implements the fixed-window admission control applied to
// registration endpoints: a configurable ceiling per (client, route) pair
// within a configurable window, backed by a shared expiring counter store.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"healthfirst/internal/platform/metrics"
)

// Service admits or rejects requests per (clientKey, route) pair. It never
// blocks: a store failure is resolved immediately per the configured
// degraded-mode policy.
type Service struct {
	counters CounterStore
	limit    int
	window   time.Duration

	// failOpen selects the degraded-mode policy when the counter store is
	// unreachable. Default is fail-closed, preserving the rate-limit
	// guarantee at the cost of availability.
	failOpen bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFailOpen switches the degraded-mode policy to admit requests when the
// counter store is down.
func WithFailOpen() Option {
	return func(s *Service) { s.failOpen = true }
}

func New(counters CounterStore, limit int, window time.Duration, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}

	svc := &Service{
		counters: counters,
		limit:    limit,
		window:   window,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Admit counts one attempt for (clientKey, route) and reports whether it is
// within the window ceiling. Rejections include the seconds remaining until
// the window resets.
func (s *Service) Admit(ctx context.Context, clientKey, route string) Decision {
	count, ttl, err := s.counters.Incr(ctx, Key(route, clientKey), s.window)
	if err != nil {
		return s.degraded(ctx, clientKey, route, err)
	}

	resetAt := time.Now().Add(ttl)
	if count > int64(s.limit) {
		if s.metrics != nil {
			s.metrics.RateLimitRejections.Inc()
		}
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"route", route,
			"limit", s.limit,
			"window_seconds", int(s.window.Seconds()),
		)
		return Decision{
			Allowed:    false,
			Limit:      s.limit,
			Remaining:  0,
			RetryAfter: retryAfterSeconds(ttl),
			ResetAt:    resetAt,
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - int(count),
		ResetAt:   resetAt,
	}
}

// degraded applies the fail-open/fail-closed policy on store failure.
func (s *Service) degraded(ctx context.Context, clientKey, route string, err error) Decision {
	if s.metrics != nil {
		s.metrics.DegradedEvents.Inc()
	}
	s.logger.ErrorContext(ctx, "rate limit store unavailable, running degraded",
		"route", route,
		"fail_open", s.failOpen,
		"error", err,
	)
	if s.failOpen {
		return Decision{Allowed: true, Limit: s.limit, Remaining: 0, ResetAt: time.Now().Add(s.window)}
	}
	return Decision{
		Allowed:    false,
		Limit:      s.limit,
		Remaining:  0,
		RetryAfter: retryAfterSeconds(s.window),
		ResetAt:    time.Now().Add(s.window),
	}
}

func retryAfterSeconds(ttl time.Duration) int {
	secs := int(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
