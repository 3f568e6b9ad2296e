//go:build integration

package registration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *PostgresRecordStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("healthfirst_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool

	s.store = NewPostgresRecordStore(pool)
	s.Require().NoError(s.store.EnsureSchema(ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		testcontainers.CleanupContainer(s.T(), s.container)
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE records")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := providerRecord("jane@example.com", "+15551234567", "MD12345")
	rec.EmergencyContact = &domain.EmergencyContact{Name: "Mary", Phone: "+15550001111", Relationship: "spouse"}

	s.Require().NoError(s.store.Create(ctx, rec))
	s.False(rec.CreatedAt.IsZero())

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.Email, got.Email)
	s.Equal(rec.LicenseNumber, got.LicenseNumber)
	s.Require().NotNil(got.EmergencyContact)
	s.Equal("Mary", got.EmergencyContact.Name)

	got, err = s.store.FindByEmail(ctx, rec.Email)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByEmail(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAvailableReportsConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, providerRecord("jane@example.com", "+15551234567", "MD12345")))

	err := s.store.Available(ctx, "jane@example.com", "+15551234567", "MD12345")
	var conflict *ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.ElementsMatch([]string{"email", "phone_number", "license_number"}, conflict.Fields)

	s.NoError(s.store.Available(ctx, "free@example.com", "+15550000000", "MD00000"))
}

func (s *PostgresStoreSuite) TestEmptyLicenseDoesNotConflict() {
	ctx := context.Background()

	patient := providerRecord("p1@example.com", "+15550000001", "")
	patient.Kind = domain.KindPatient
	s.Require().NoError(s.store.Create(ctx, patient))

	other := providerRecord("p2@example.com", "+15550000002", "")
	other.Kind = domain.KindPatient
	s.NoError(s.store.Create(ctx, other))
}

func (s *PostgresStoreSuite) TestCreateRejectsEmptyHash() {
	rec := providerRecord("jane@example.com", "+15551234567", "MD12345")
	rec.PasswordHash = ""
	s.Error(s.store.Create(context.Background(), rec))
}

func (s *PostgresStoreSuite) TestConcurrentCreateExactlyOneSuccess() {
	ctx := context.Background()

	const racers = 10
	var successes, conflicts atomic.Int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, providerRecord("race@example.com", "+15551112222", "MD77777"))
			if err == nil {
				successes.Add(1)
				return
			}
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), successes.Load())
	s.Equal(int64(racers-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestMarkEmailVerified() {
	ctx := context.Background()
	rec := providerRecord("jane@example.com", "+15551234567", "MD12345")
	s.Require().NoError(s.store.Create(ctx, rec))

	before := rec.UpdatedAt
	time.Sleep(10 * time.Millisecond)
	s.Require().NoError(s.store.MarkEmailVerified(ctx, rec.ID))

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.True(got.EmailVerified)
	s.Equal(domain.StatusVerified, got.Status)
	s.True(got.UpdatedAt.After(before))
}
