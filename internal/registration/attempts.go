package registration

import (
	"context"
	"sync"
	"time"

	"github.com/mssola/useragent"
)

// Attempt is one registration attempt, recorded for audit regardless of
// outcome. Failures to record never fail the request.
type Attempt struct {
	IP        string
	Email     string
	Success   bool
	Error     string
	Browser   string
	OS        string
	CreatedAt time.Time
}

// AttemptStore appends registration attempts.
type AttemptStore interface {
	Append(ctx context.Context, attempt Attempt) error
}

// newAttempt parses the raw user agent into browser and OS so the audit
// trail stays readable without storing full UA strings.
func newAttempt(ip, email, rawUA string, success bool, errMsg string) Attempt {
	a := Attempt{
		IP:        ip,
		Email:     email,
		Success:   success,
		Error:     errMsg,
		CreatedAt: time.Now(),
	}
	if rawUA != "" {
		ua := useragent.New(rawUA)
		name, version := ua.Browser()
		a.Browser = name + " " + version
		a.OS = ua.OS()
	}
	return a
}

// MemoryAttemptStore keeps attempts in process, newest last.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts []Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{}
}

func (s *MemoryAttemptStore) Append(_ context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// List returns a copy of all recorded attempts.
func (s *MemoryAttemptStore) List() []Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
