package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

// schema is applied idempotently at startup, one statement per Exec since
// pgx's extended protocol rejects multi-statement strings. Uniqueness lives
// in the database so concurrent creates across replicas still yield exactly
// one success; the partial index scopes license uniqueness to rows that have
// one.
var schema = []string{`
CREATE TABLE IF NOT EXISTS records (
	id                  UUID PRIMARY KEY,
	kind                TEXT NOT NULL,
	first_name          TEXT NOT NULL,
	last_name           TEXT NOT NULL,
	email               TEXT NOT NULL,
	phone               TEXT NOT NULL,
	license_number      TEXT NOT NULL DEFAULT '',
	specialization      TEXT NOT NULL DEFAULT '',
	years_of_experience INT  NOT NULL DEFAULT 0,
	password_hash       TEXT NOT NULL CHECK (password_hash <> ''),
	street              TEXT NOT NULL,
	city                TEXT NOT NULL,
	state               TEXT NOT NULL,
	zip                 TEXT NOT NULL,
	emergency_name         TEXT,
	emergency_phone        TEXT,
	emergency_relationship TEXT,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	email_verified      BOOLEAN NOT NULL DEFAULT FALSE,
	is_active           BOOLEAN NOT NULL DEFAULT TRUE,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS records_email_key ON records (email)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS records_phone_key ON records (phone)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS records_license_number_key ON records (license_number) WHERE license_number <> ''`,
	`CREATE INDEX IF NOT EXISTS records_status_idx ON records (verification_status)`,
}

// PostgresRecordStore persists records in PostgreSQL through pgx.
type PostgresRecordStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordStore(pool *pgxpool.Pool) *PostgresRecordStore {
	return &PostgresRecordStore{pool: pool}
}

// EnsureSchema creates the records table and its indexes if missing.
func (s *PostgresRecordStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure records schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresRecordStore) Available(ctx context.Context, email, phone, license string) error {
	rows, err := s.pool.Query(ctx, `
		SELECT email = $1, phone = $2, license_number = $3 AND license_number <> ''
		FROM records
		WHERE email = $1 OR phone = $2 OR (license_number = $3 AND license_number <> '')`,
		email, phone, license)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	defer rows.Close()

	var emailTaken, phoneTaken, licenseTaken bool
	for rows.Next() {
		var e, p, l bool
		if err := rows.Scan(&e, &p, &l); err != nil {
			return fmt.Errorf("check availability: %w", err)
		}
		emailTaken = emailTaken || e
		phoneTaken = phoneTaken || p
		licenseTaken = licenseTaken || l
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("check availability: %w", err)
	}

	var fields []string
	if emailTaken {
		fields = append(fields, "email")
	}
	if phoneTaken {
		fields = append(fields, "phone_number")
	}
	if licenseTaken {
		fields = append(fields, "license_number")
	}
	if len(fields) > 0 {
		return &ConflictError{Fields: fields}
	}
	return nil
}

func (s *PostgresRecordStore) Create(ctx context.Context, rec *domain.Record) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	var emName, emPhone, emRel *string
	if ec := rec.EmergencyContact; ec != nil {
		emName, emPhone, emRel = &ec.Name, &ec.Phone, &ec.Relationship
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO records (
			id, kind, first_name, last_name, email, phone, license_number,
			specialization, years_of_experience, password_hash,
			street, city, state, zip,
			emergency_name, emergency_phone, emergency_relationship,
			verification_status, email_verified, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		rec.ID, rec.Kind, rec.FirstName, rec.LastName, rec.Email, rec.Phone, rec.LicenseNumber,
		rec.Specialization, rec.YearsOfExperience, rec.PasswordHash,
		rec.Address.Street, rec.Address.City, rec.Address.State, rec.Address.Zip,
		emName, emPhone, emRel,
		rec.Status, rec.EmailVerified, rec.IsActive, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return &ConflictError{Fields: []string{field}}
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	return s.findOne(ctx, "id = $1", id)
}

func (s *PostgresRecordStore) FindByEmail(ctx context.Context, email string) (*domain.Record, error) {
	return s.findOne(ctx, "email = $1", email)
}

func (s *PostgresRecordStore) findOne(ctx context.Context, where string, arg any) (*domain.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, kind, first_name, last_name, email, phone, license_number,
			specialization, years_of_experience, password_hash,
			street, city, state, zip,
			emergency_name, emergency_phone, emergency_relationship,
			verification_status, email_verified, is_active, created_at, updated_at
		FROM records WHERE `+where, arg)

	var rec domain.Record
	var emName, emPhone, emRel *string
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &rec.LicenseNumber,
		&rec.Specialization, &rec.YearsOfExperience, &rec.PasswordHash,
		&rec.Address.Street, &rec.Address.City, &rec.Address.State, &rec.Address.Zip,
		&emName, &emPhone, &emRel,
		&rec.Status, &rec.EmailVerified, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	if emName != nil {
		rec.EmergencyContact = &domain.EmergencyContact{
			Name:         *emName,
			Phone:        stringOr(emPhone),
			Relationship: stringOr(emRel),
		}
	}
	return &rec, nil
}

func (s *PostgresRecordStore) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE records
		SET email_verified = TRUE, verification_status = $2, updated_at = NOW()
		WHERE id = $1`,
		id, domain.StatusVerified)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// uniqueViolationField maps a 23505 unique violation to the conflicting
// request field via the index name.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	switch pgErr.ConstraintName {
	case "records_phone_key":
		return "phone_number", true
	case "records_license_number_key":
		return "license_number", true
	default:
		return "email", true
	}
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
