package registration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

// MemoryRecordStore keeps records in process. The single mutex makes the
// check-and-insert in Create atomic, which is what the exactly-one-success
// guarantee rests on.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Record

	byEmail   map[string]uuid.UUID
	byPhone   map[string]uuid.UUID
	byLicense map[string]uuid.UUID
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records:   make(map[uuid.UUID]*domain.Record),
		byEmail:   make(map[string]uuid.UUID),
		byPhone:   make(map[string]uuid.UUID),
		byLicense: make(map[string]uuid.UUID),
	}
}

func (s *MemoryRecordStore) Available(_ context.Context, email, phone, license string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conflicts(email, phone, license)
}

// conflicts must be called with at least the read lock held.
func (s *MemoryRecordStore) conflicts(email, phone, license string) error {
	var fields []string
	if _, ok := s.byEmail[email]; ok {
		fields = append(fields, "email")
	}
	if _, ok := s.byPhone[phone]; ok {
		fields = append(fields, "phone_number")
	}
	if license != "" {
		if _, ok := s.byLicense[license]; ok {
			fields = append(fields, "license_number")
		}
	}
	if len(fields) > 0 {
		return &ConflictError{Fields: fields}
	}
	return nil
}

func (s *MemoryRecordStore) Create(_ context.Context, rec *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conflicts(rec.Email, rec.Phone, rec.LicenseNumber); err != nil {
		return err
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored := *rec
	s.records[rec.ID] = &stored
	s.byEmail[rec.Email] = rec.ID
	s.byPhone[rec.Phone] = rec.ID
	if rec.LicenseNumber != "" {
		s.byLicense[rec.LicenseNumber] = rec.ID
	}
	return nil
}

func (s *MemoryRecordStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryRecordStore) FindByEmail(_ context.Context, email string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.records[id]
	return &out, nil
}

func (s *MemoryRecordStore) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.EmailVerified = true
	rec.Status = domain.StatusVerified
	rec.UpdatedAt = time.Now()
	return nil
}
