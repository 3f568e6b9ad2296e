package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"healthfirst/internal/domain"
	"healthfirst/internal/notify"
	"healthfirst/internal/platform/metrics"
	"healthfirst/internal/security"
	"healthfirst/internal/validate"
	pkgerrors "healthfirst/pkg/errors"
	"healthfirst/pkg/platform/sentinel"
)

// DefaultTTL is how long an issued token stays redeemable.
const DefaultTTL = 24 * time.Hour

// Records is the slice of record storage the verification flow needs.
type Records interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	FindByEmail(ctx context.Context, email string) (*domain.Record, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// Service issues and redeems email verification tokens. At most one token
// per record is outstanding: issuing a new one invalidates its
// predecessors.
type Service struct {
	tokens     TokenStore
	records    Records
	dispatcher notify.Dispatcher
	ttl        time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(tokens TokenStore, records Records, dispatcher notify.Dispatcher, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, errors.New("token store is required")
	}
	if records == nil {
		return nil, errors.New("record store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	svc := &Service{
		tokens:     tokens,
		records:    records,
		dispatcher: dispatcher,
		ttl:        DefaultTTL,
		logger:     slog.Default(),
		tracer:     otel.Tracer("healthfirst/verification"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue mints a fresh token for the record, invalidating any earlier one.
func (s *Service) Issue(ctx context.Context, recordID uuid.UUID) (*domain.VerificationToken, error) {
	ctx, span := s.tracer.Start(ctx, "verification.issue")
	defer span.End()

	if err := s.tokens.InvalidateByRecord(ctx, recordID); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not issue verification token")
	}

	value, err := security.GenerateToken()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not issue verification token")
	}

	now := s.now()
	token := &domain.VerificationToken{
		Value:     value,
		RecordID:  recordID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not issue verification token")
	}

	if s.metrics != nil {
		s.metrics.TokensIssued.Inc()
	}
	s.logger.InfoContext(ctx, "verification token issued",
		"record_id", recordID, "expires_at", token.ExpiresAt)
	return token, nil
}

// Redeem consumes the token and marks the owning record verified. The
// consume is exactly-once: a second redemption of the same value fails
// even when the requests race.
func (s *Service) Redeem(ctx context.Context, value string) (*domain.Record, error) {
	ctx, span := s.tracer.Start(ctx, "verification.redeem")
	defer span.End()

	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "Verification token is required")
	}

	token, err := s.tokens.Consume(ctx, value)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Verification token not found")
		case errors.Is(err, sentinel.ErrExpired):
			return nil, pkgerrors.New(pkgerrors.CodeExpired, "Verification token has expired")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed, "Verification token has already been used")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not verify email")
	}

	if err := s.records.MarkEmailVerified(ctx, token.RecordID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Verification token not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not verify email")
	}

	rec, err := s.records.FindByID(ctx, token.RecordID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not verify email")
	}

	if s.metrics != nil {
		s.metrics.TokensRedeemed.Inc()
	}
	s.logger.InfoContext(ctx, "email verified", "record_id", rec.ID)

	// Welcome email is best effort, the verification already succeeded.
	if err := s.dispatcher.Enqueue(ctx, notify.Job{
		Kind:     notify.JobWelcome,
		RecordID: rec.ID,
		Email:    rec.Email,
		Name:     rec.FullName(),
	}); err != nil {
		s.logger.WarnContext(ctx, "welcome email enqueue failed",
			"record_id", rec.ID, "error", err)
	}

	return rec, nil
}

// Resend reissues a token for an unverified record and queues a new
// verification email. It reports nothing about whether the email exists
// or is already verified, so it cannot be used to probe for accounts.
func (s *Service) Resend(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "verification.resend")
	defer span.End()

	if email == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "Email address is required")
	}

	// Records are stored with normalized emails, so the lookup must match.
	email, _ = validate.Email(email)

	rec, err := s.records.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.InfoContext(ctx, "resend requested for unknown email")
			return nil
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "could not resend verification email")
	}
	if rec.EmailVerified {
		s.logger.InfoContext(ctx, "resend requested for verified record", "record_id", rec.ID)
		return nil
	}

	token, err := s.Issue(ctx, rec.ID)
	if err != nil {
		return err
	}

	if err := s.dispatcher.Enqueue(ctx, notify.Job{
		Kind:      notify.JobVerification,
		RecordID:  rec.ID,
		Email:     rec.Email,
		Name:      rec.FullName(),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "verification email enqueue failed",
			"record_id", rec.ID, "error", err)
	}
	return nil
}
