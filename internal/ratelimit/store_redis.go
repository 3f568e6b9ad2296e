package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript performs the increment and window-expiry bookkeeping in a single
// round trip so concurrent callers for the same key cannot race between the
// INCR and the PEXPIRE.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisCounterStore implements CounterStore on a shared Redis instance,
// making the fixed window consistent across server replicas.
type RedisCounterStore struct {
	client redis.UniversalClient
}

func NewRedisCounterStore(client redis.UniversalClient) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	raw, err := incrScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis script response %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected count type %T", values[0])
	}
	ttlMS, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected ttl type %T", values[1])
	}
	if ttlMS < 0 {
		ttlMS = window.Milliseconds()
	}
	return count, time.Duration(ttlMS) * time.Millisecond, nil
}
