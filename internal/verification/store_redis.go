package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"healthfirst/internal/domain"
	"healthfirst/pkg/platform/sentinel"
)

// consumedRetention keeps expired and consumed tokens around after their
// expiry so redemption can still tell "expired" and "already used" apart
// from "never existed".
const consumedRetention = 48 * time.Hour

// consumeScript checks and flips a token atomically. It replies with the
// token fields on success or with a status word for each failure mode,
// checking expiry before the consumed flag.
var consumeScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
	return "missing"
end
local expires = tonumber(redis.call("HGET", key, "expires_at"))
if tonumber(ARGV[1]) >= expires then
	return "expired"
end
if redis.call("HGET", key, "consumed") == "1" then
	return "used"
end
redis.call("HSET", key, "consumed", "1")
return redis.call("HMGET", key, "record_id", "issued_at", "expires_at")
`)

// RedisTokenStore persists tokens in Redis so redemption stays
// exactly-once across replicas.
type RedisTokenStore struct {
	client redis.UniversalClient
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(value string) string {
	return "verify:token:" + value
}

func recordKey(recordID uuid.UUID) string {
	return "verify:record:" + recordID.String()
}

func (s *RedisTokenStore) Save(ctx context.Context, token *domain.VerificationToken) error {
	key := tokenKey(token.Value)
	ttl := time.Until(token.ExpiresAt) + consumedRetention

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"record_id", token.RecordID.String(),
		"issued_at", token.IssuedAt.Unix(),
		"expires_at", token.ExpiresAt.Unix(),
		"consumed", "0")
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, recordKey(token.RecordID), token.Value)
	pipe.Expire(ctx, recordKey(token.RecordID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Consume(ctx context.Context, value string) (*domain.VerificationToken, error) {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{tokenKey(value)}, time.Now().Unix()).Result()
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}

	switch v := res.(type) {
	case string:
		switch v {
		case "missing":
			return nil, sentinel.ErrNotFound
		case "expired":
			return nil, sentinel.ErrExpired
		case "used":
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("consume verification token: unexpected reply %q", v)
	case []interface{}:
		if len(v) != 3 {
			return nil, fmt.Errorf("consume verification token: unexpected reply length %d", len(v))
		}
		recordID, err := uuid.Parse(fmt.Sprint(v[0]))
		if err != nil {
			return nil, fmt.Errorf("consume verification token: bad record id: %w", err)
		}
		issued, err := parseUnix(v[1])
		if err != nil {
			return nil, fmt.Errorf("consume verification token: bad issued_at: %w", err)
		}
		expires, err := parseUnix(v[2])
		if err != nil {
			return nil, fmt.Errorf("consume verification token: bad expires_at: %w", err)
		}
		return &domain.VerificationToken{
			Value:     value,
			RecordID:  recordID,
			IssuedAt:  issued,
			ExpiresAt: expires,
			Consumed:  true,
		}, nil
	default:
		return nil, fmt.Errorf("consume verification token: unexpected reply type %T", res)
	}
}

func (s *RedisTokenStore) InvalidateByRecord(ctx context.Context, recordID uuid.UUID) error {
	values, err := s.client.SMembers(ctx, recordKey(recordID)).Result()
	if err != nil {
		return fmt.Errorf("invalidate verification tokens: %w", err)
	}
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values)+1)
	for _, v := range values {
		keys = append(keys, tokenKey(v))
	}
	keys = append(keys, recordKey(recordID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate verification tokens: %w", err)
	}
	return nil
}

func parseUnix(v interface{}) (time.Time, error) {
	var sec int64
	if _, err := fmt.Sscan(fmt.Sprint(v), &sec); err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}
