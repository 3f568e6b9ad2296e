package verification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

// MemoryTokenStore keeps tokens in process. The mutex makes Consume a
// check-and-set, so exactly one concurrent redemption of a value wins.
type MemoryTokenStore struct {
	mu       sync.Mutex
	tokens   map[string]*domain.VerificationToken
	byRecord map[uuid.UUID][]string

	now func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens:   make(map[string]*domain.VerificationToken),
		byRecord: make(map[uuid.UUID][]string),
		now:      time.Now,
	}
}

func (s *MemoryTokenStore) Save(_ context.Context, token *domain.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *token
	s.tokens[token.Value] = &stored
	s.byRecord[token.RecordID] = append(s.byRecord[token.RecordID], token.Value)
	return nil
}

func (s *MemoryTokenStore) Consume(_ context.Context, value string) (*domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[value]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if token.Expired(s.now()) {
		return nil, sentinel.ErrExpired
	}
	if token.Consumed {
		return nil, sentinel.ErrAlreadyUsed
	}
	token.Consumed = true
	out := *token
	return &out, nil
}

func (s *MemoryTokenStore) InvalidateByRecord(_ context.Context, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, value := range s.byRecord[recordID] {
		delete(s.tokens, value)
	}
	delete(s.byRecord, recordID)
	return nil
}
