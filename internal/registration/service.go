// Package registration orchestrates the provider/patient registration
// pipeline: field validation, rate-limited admission, uniqueness checks,
// password hashing, persistence, and the hand-off to the verification and
// notification subsystems.
package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"healthfirst/internal/domain"
	"healthfirst/internal/jwttoken"
	"healthfirst/internal/notify"
	"healthfirst/internal/platform/metrics"
	"healthfirst/internal/ratelimit"
	"healthfirst/internal/security"
	"healthfirst/internal/validate"
	pkgerrors "healthfirst/pkg/errors"
	"healthfirst/pkg/platform/sentinel"
)

// Route discriminators for the rate limiter.
const (
	routeProviderRegister = "provider.register"
	routePatientRegister  = "patient.register"
)

// RateLimiter admits or rejects a (clientKey, route) pair. Implemented by
// the ratelimit service.
type RateLimiter interface {
	Admit(ctx context.Context, clientKey, route string) ratelimit.Decision
}

// TokenIssuer issues email verification tokens. Implemented by the
// verification service.
type TokenIssuer interface {
	Issue(ctx context.Context, recordID uuid.UUID) (*domain.VerificationToken, error)
}

// Service runs the registration pipeline.
type Service struct {
	records    RecordStore
	attempts   AttemptStore
	limiter    RateLimiter
	tokens     TokenIssuer
	dispatcher notify.Dispatcher
	hasher     security.Hasher
	jwt        *jwttoken.Service

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAttemptStore(store AttemptStore) Option {
	return func(s *Service) { s.attempts = store }
}

// WithJWT enables the login operation.
func WithJWT(jwt *jwttoken.Service) Option {
	return func(s *Service) { s.jwt = jwt }
}

func New(
	records RecordStore,
	limiter RateLimiter,
	tokens TokenIssuer,
	dispatcher notify.Dispatcher,
	hasher security.Hasher,
	opts ...Option,
) (*Service, error) {
	if records == nil {
		return nil, errors.New("record store is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	svc := &Service{
		records:    records,
		limiter:    limiter,
		tokens:     tokens,
		dispatcher: dispatcher,
		hasher:     hasher,
		logger:     slog.Default(),
		tracer:     otel.Tracer("healthfirst/registration"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterProvider runs the full pipeline for a provider registration.
func (s *Service) RegisterProvider(ctx context.Context, in ProviderInput) (*RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register",
		trace.WithAttributes(attribute.String("record.kind", string(domain.KindProvider))))
	defer span.End()

	if fe := validateProvider(&in); !fe.Empty() {
		return nil, s.reject(ctx, domain.KindProvider, in.ClientIP, in.Email, in.UserAgent,
			pkgerrors.WithFields(pkgerrors.CodeValidation, "Registration validation failed", fe))
	}

	rec := &domain.Record{
		ID:                uuid.New(),
		Kind:              domain.KindProvider,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		Phone:             in.PhoneNumber,
		LicenseNumber:     in.LicenseNumber,
		Specialization:    in.Specialization,
		YearsOfExperience: in.YearsOfExperience,
		Address: domain.Address{
			Street: in.ClinicAddress.Street,
			City:   in.ClinicAddress.City,
			State:  in.ClinicAddress.State,
			Zip:    in.ClinicAddress.Zip,
		},
		Status:   domain.StatusPending,
		IsActive: true,
	}
	return s.register(ctx, rec, in.Password, routeProviderRegister, in.ClientIP, in.UserAgent)
}

// RegisterPatient runs the full pipeline for a patient registration.
func (s *Service) RegisterPatient(ctx context.Context, in PatientInput) (*RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register",
		trace.WithAttributes(attribute.String("record.kind", string(domain.KindPatient))))
	defer span.End()

	if fe := validatePatient(&in); !fe.Empty() {
		return nil, s.reject(ctx, domain.KindPatient, in.ClientIP, in.Email, in.UserAgent,
			pkgerrors.WithFields(pkgerrors.CodeValidation, "Registration validation failed", fe))
	}

	rec := &domain.Record{
		ID:        uuid.New(),
		Kind:      domain.KindPatient,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.PhoneNumber,
		Address: domain.Address{
			Street: in.Address.Street,
			City:   in.Address.City,
			State:  in.Address.State,
			Zip:    in.Address.Zip,
		},
		Status:   domain.StatusPending,
		IsActive: true,
	}
	if ec := in.EmergencyContact; ec != nil {
		rec.EmergencyContact = &domain.EmergencyContact{
			Name:         ec.Name,
			Phone:        ec.Phone,
			Relationship: ec.Relationship,
		}
	}
	return s.register(ctx, rec, in.Password, routePatientRegister, in.ClientIP, in.UserAgent)
}

// register is the shared tail of the pipeline, entered only with validated,
// normalized input. Order matters: the rate limiter runs before the
// uniqueness check and the hash so rejected clients cost almost nothing, and
// the store insert stays the single authority on uniqueness under
// concurrency.
func (s *Service) register(ctx context.Context, rec *domain.Record, password, route, clientIP, userAgent string) (*RegisterResult, error) {
	kind := rec.Kind

	if d := s.limiter.Admit(ctx, clientIP, route); !d.Allowed {
		return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent, pkgerrors.RateLimited(d.RetryAfter))
	}

	if err := s.records.Available(ctx, rec.Email, rec.Phone, rec.LicenseNumber); err != nil {
		if conflict := conflictToDomain(err); conflict != nil {
			return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent, conflict)
		}
		return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent,
			pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred during registration"))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent,
			pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred during registration"))
	}
	rec.PasswordHash = hash

	if err := s.records.Create(ctx, rec); err != nil {
		if conflict := conflictToDomain(err); conflict != nil {
			return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent, conflict)
		}
		return nil, s.reject(ctx, kind, clientIP, rec.Email, userAgent,
			pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred during registration"))
	}

	// The record exists from here on: verification-email problems are
	// warnings, never failures, and must not delay or roll back the
	// response.
	s.issueVerification(ctx, rec)
	s.notifyAdmin(ctx, rec)

	s.logAttempt(ctx, newAttempt(clientIP, rec.Email, userAgent, true, ""))
	if s.metrics != nil {
		s.metrics.Registrations.WithLabelValues(string(kind), "success").Inc()
	}
	s.logger.InfoContext(ctx, "registration completed",
		"kind", kind, "record_id", rec.ID)

	return &RegisterResult{
		ID:                 rec.ID,
		Email:              rec.Email,
		VerificationStatus: rec.Status,
	}, nil
}

func (s *Service) issueVerification(ctx context.Context, rec *domain.Record) {
	token, err := s.tokens.Issue(ctx, rec.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "could not issue verification token",
			"record_id", rec.ID, "error", err)
		return
	}
	s.enqueue(ctx, notify.Job{
		Kind:      notify.JobVerification,
		RecordID:  rec.ID,
		Email:     rec.Email,
		Name:      rec.FullName(),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	})
}

func (s *Service) notifyAdmin(ctx context.Context, rec *domain.Record) {
	s.enqueue(ctx, notify.Job{
		Kind:     notify.JobAdminNotice,
		RecordID: rec.ID,
		Email:    rec.Email,
		Name:     rec.FullName(),
	})
}

// enqueue reports dispatcher failures as warnings only.
func (s *Service) enqueue(ctx context.Context, job notify.Job) {
	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		if s.metrics != nil {
			s.metrics.EmailEnqueueFailures.Inc()
		}
		s.logger.WarnContext(ctx, "notification enqueue failed",
			"kind", job.Kind, "record_id", job.RecordID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.EmailJobsEnqueued.WithLabelValues(string(job.Kind)).Inc()
	}
}

// reject records the failed attempt and returns the domain error unchanged.
func (s *Service) reject(ctx context.Context, kind domain.Kind, clientIP, email, userAgent string, err *pkgerrors.Error) error {
	s.logAttempt(ctx, newAttempt(clientIP, email, userAgent, false, string(err.Code)))
	if s.metrics != nil {
		s.metrics.Registrations.WithLabelValues(string(kind), string(err.Code)).Inc()
	}
	s.logger.WarnContext(ctx, "registration rejected",
		"kind", kind, "code", err.Code)
	return err
}

func (s *Service) logAttempt(ctx context.Context, attempt Attempt) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Append(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "could not record registration attempt", "error", err)
	}
}

// conflictToDomain converts a store *ConflictError into the client-facing
// 409 error naming each colliding field.
func conflictToDomain(err error) *pkgerrors.Error {
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		return nil
	}
	fields := make(map[string][]string, len(conflict.Fields))
	for _, f := range conflict.Fields {
		switch f {
		case "email":
			fields[f] = []string{"This email is already registered."}
		case "phone_number":
			fields[f] = []string{"This phone number is already registered."}
		case "license_number":
			fields[f] = []string{"This license number is already registered."}
		default:
			fields[f] = []string{"This value is already registered."}
		}
	}
	return pkgerrors.WithFields(pkgerrors.CodeConflict, "Duplicate registration details", fields)
}

// Login verifies credentials and issues an access token. Unknown emails and
// bad passwords return the same generic error.
func (s *Service) Login(ctx context.Context, kind domain.Kind, email, password string) (*LoginResult, error) {
	if s.jwt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "login is not configured")
	}

	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid email or password")

	normalized, reasons := validate.Email(email)
	if len(reasons) > 0 {
		return nil, invalid
	}
	rec, err := s.records.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalid
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred during login")
	}
	if rec.Kind != kind || !rec.IsActive {
		return nil, invalid
	}
	if err := s.hasher.Verify(password, rec.PasswordHash); err != nil {
		return nil, invalid
	}
	if !rec.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Email address is not verified yet")
	}

	token, err := s.jwt.GenerateAccessToken(rec.ID, rec.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred during login")
	}
	return &LoginResult{
		RecordID:    rec.ID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.TTL().Seconds()),
	}, nil
}

// Get fetches a record by id for the detail endpoint.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Record not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "An error occurred while fetching the record")
	}
	return rec, nil
}
