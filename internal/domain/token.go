package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationToken is a single-use opaque credential proving control of an
// email address. At most one unconsumed, unexpired token exists per record:
// issuing a new one supersedes any outstanding token.
type VerificationToken struct {
	Value     string
	RecordID  uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
