// Package security wraps the vetted cryptographic primitives used by the
// registration pipeline: bcrypt for password storage and crypto/rand for
// verification tokens. No ad hoc hashing lives anywhere else.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	pkgerrors "healthfirst/pkg/errors"
)

// DefaultCost matches the original deployment's 12 bcrypt rounds.
const DefaultCost = 12

// tokenBytes sizes verification tokens; 48 random bytes encode to a 64
// character URL-safe string.
const tokenBytes = 48

// Hasher hashes and verifies passwords with a configurable bcrypt work
// factor.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash returns the bcrypt hash of plain. The plaintext is not retained.
func (h Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", pkgerrors.New(pkgerrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plain against a stored bcrypt hash.
func (h Hasher) Verify(plain, hash string) error {
	if plain == "" || hash == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}

// GenerateToken creates a cryptographically unguessable opaque token value.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
