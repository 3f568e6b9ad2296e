// Package verification issues, redeems, and reissues email verification
// tokens.
package verification

import (
	"context"

	"github.com/google/uuid"

	"healthfirst/internal/domain"
)

// TokenStore persists verification tokens.
//
// Consume is the redemption authority: it must atomically check the token
// and flip its consumed flag so that concurrent redemptions of the same
// value yield exactly one success. Implementations return
// sentinel.ErrNotFound for unknown values, sentinel.ErrExpired for expired
// ones, and sentinel.ErrAlreadyUsed for consumed ones, checking expiry
// before the consumed flag.
type TokenStore interface {
	Save(ctx context.Context, token *domain.VerificationToken) error
	Consume(ctx context.Context, value string) (*domain.VerificationToken, error)
	InvalidateByRecord(ctx context.Context, recordID uuid.UUID) error
}
