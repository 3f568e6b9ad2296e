package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

// RecordStore persists provider/patient records. Create must be atomic with
// respect to the unique email/phone/license constraints: two concurrent
// creates sharing any unique value must yield exactly one success and one
// *ConflictError.
type RecordStore interface {
	// Available reports whether the unique fields are free, returning a
	// *ConflictError naming the taken ones. Cheap pre-check only: Create is
	// the authority under concurrency.
	Available(ctx context.Context, email, phone, license string) error

	// Create inserts the record if none of its unique fields collide.
	Create(ctx context.Context, rec *domain.Record) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	FindByEmail(ctx context.Context, email string) (*domain.Record, error)

	// MarkEmailVerified flips the record to email_verified with status
	// verified, bumping updated_at.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// ConflictError names the unique fields that collided with existing records.
// It matches sentinel.ErrConflict under errors.Is.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique field collision: %s", strings.Join(e.Fields, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == sentinel.ErrConflict
}
