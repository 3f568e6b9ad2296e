package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the narrow contract the limiter needs from its backing
// store: an atomic increment-and-expire. The first increment of a key starts
// a fixed window of the given length; the returned ttl is the time remaining
// in that window.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}
