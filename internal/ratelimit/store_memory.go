package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore implements CounterStore with an in-process fixed window
// per key. Suitable for single-instance deployments and tests; distributed
// deployments should use the Redis store.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*fixedWindow

	now func() time.Time
}

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*fixedWindow),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fw := s.counters[key]
	if fw == nil || !now.Before(fw.resetAt) {
		fw = &fixedWindow{resetAt: now.Add(window)}
		s.counters[key] = fw
	}
	fw.count++
	return fw.count, fw.resetAt.Sub(now), nil
}

// Reset clears the counter for a key.
func (s *MemoryCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
