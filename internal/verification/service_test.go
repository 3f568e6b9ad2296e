package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthfirst/internal/domain"
	"healthfirst/internal/notify"
	"healthfirst/internal/registration"
	pkgerrors "healthfirst/pkg/errors"
	"healthfirst/pkg/platform/sentinel"
)

type captureDispatcher struct {
	mu   sync.Mutex
	err  error
	jobs []notify.Job
}

func (d *captureDispatcher) Enqueue(_ context.Context, job notify.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *captureDispatcher) all() []notify.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Job, len(d.jobs))
	copy(out, d.jobs)
	return out
}

func seedRecord(t *testing.T, store *registration.MemoryRecordStore) *domain.Record {
	t.Helper()
	rec := &domain.Record{
		ID:           uuid.New(),
		Kind:         domain.KindProvider,
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane.doe@example.com",
		Phone:        "+15551234567",
		PasswordHash: "$2a$12$hash",
		Status:       domain.StatusPending,
		IsActive:     true,
	}
	require.NoError(t, store.Create(context.Background(), rec))
	return rec
}

func newService(t *testing.T, tokens TokenStore, records Records, dispatcher notify.Dispatcher, opts ...Option) *Service {
	t.Helper()
	svc, err := New(tokens, records, dispatcher, opts...)
	require.NoError(t, err)
	return svc
}

func TestIssue(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	svc := newService(t, tokens, records, &captureDispatcher{})
	ctx := context.Background()

	token, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, token.Value, 64)
	assert.Equal(t, rec.ID, token.RecordID)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), token.ExpiresAt, time.Minute)
}

func TestIssueInvalidatesPriorToken(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	svc := newService(t, tokens, records, &captureDispatcher{})
	ctx := context.Background()

	first, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Value, second.Value)

	_, err = tokens.Consume(ctx, first.Value)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = tokens.Consume(ctx, second.Value)
	assert.NoError(t, err, "only the latest token stays redeemable")
}

func TestRedeem(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	dispatcher := &captureDispatcher{}
	svc := newService(t, tokens, records, dispatcher)
	ctx := context.Background()

	token, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)

	got, err := svc.Redeem(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, domain.StatusVerified, got.Status)

	jobs := dispatcher.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, notify.JobWelcome, jobs[0].Kind)
	assert.Equal(t, rec.Email, jobs[0].Email)
}

func TestRedeemFailureModes(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	svc := newService(t, tokens, records, &captureDispatcher{}, WithTTL(time.Hour))
	ctx := context.Background()

	t.Run("empty value", func(t *testing.T) {
		_, err := svc.Redeem(ctx, "")
		assert.Equal(t, pkgerrors.CodeInvalidInput, pkgerrors.CodeOf(err))
	})

	t.Run("unknown value", func(t *testing.T) {
		_, err := svc.Redeem(ctx, "no-such-token")
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	})

	t.Run("second redemption", func(t *testing.T) {
		token, err := svc.Issue(ctx, rec.ID)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, token.Value)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, token.Value)
		assert.Equal(t, pkgerrors.CodeAlreadyUsed, pkgerrors.CodeOf(err))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.Issue(ctx, rec.ID)
		require.NoError(t, err)

		tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { tokens.now = time.Now }()

		_, err = svc.Redeem(ctx, token.Value)
		assert.Equal(t, pkgerrors.CodeExpired, pkgerrors.CodeOf(err))
	})
}

func TestRedeemConcurrentExactlyOnce(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	svc := newService(t, tokens, records, &captureDispatcher{})
	ctx := context.Background()

	token, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)

	const racers = 20
	var successes atomic.Int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Redeem(ctx, token.Value); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load())
}

func TestRedeemSurvivesWelcomeEnqueueFailure(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	svc := newService(t, tokens, records, &captureDispatcher{err: errors.New("queue full")})
	ctx := context.Background()

	token, err := svc.Issue(ctx, rec.ID)
	require.NoError(t, err)

	got, err := svc.Redeem(ctx, token.Value)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
}

func TestResend(t *testing.T) {
	tokens := NewMemoryTokenStore()
	records := registration.NewMemoryRecordStore()
	rec := seedRecord(t, records)
	dispatcher := &captureDispatcher{}
	svc := newService(t, tokens, records, dispatcher)
	ctx := context.Background()

	t.Run("unverified record gets a new token", func(t *testing.T) {
		require.NoError(t, svc.Resend(ctx, rec.Email))

		jobs := dispatcher.all()
		require.Len(t, jobs, 1)
		assert.Equal(t, notify.JobVerification, jobs[0].Kind)
		assert.NotEmpty(t, jobs[0].Token)
	})

	t.Run("mixed-case email finds the normalized record", func(t *testing.T) {
		before := len(dispatcher.all())
		require.NoError(t, svc.Resend(ctx, "Jane.Doe@Example.COM"))

		jobs := dispatcher.all()
		require.Len(t, jobs, before+1)
		assert.Equal(t, notify.JobVerification, jobs[before].Kind)
		assert.Equal(t, rec.Email, jobs[before].Email)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		before := len(dispatcher.all())
		require.NoError(t, svc.Resend(ctx, "nobody@example.com"))
		assert.Len(t, dispatcher.all(), before, "no email may be sent for unknown addresses")
	})

	t.Run("verified record succeeds silently", func(t *testing.T) {
		require.NoError(t, records.MarkEmailVerified(ctx, rec.ID))
		before := len(dispatcher.all())
		require.NoError(t, svc.Resend(ctx, rec.Email))
		assert.Len(t, dispatcher.all(), before)
	})

	t.Run("empty email rejected", func(t *testing.T) {
		err := svc.Resend(ctx, "")
		assert.Equal(t, pkgerrors.CodeInvalidInput, pkgerrors.CodeOf(err))
	})
}
