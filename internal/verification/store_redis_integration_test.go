//go:build integration

package verification

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/google/uuid"

	"healthfirst/pkg/platform/sentinel"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisTokenStoreAgainstRealRedis(t *testing.T) {
	store := NewRedisTokenStore(startRedis(t))
	ctx := context.Background()
	recordID := uuid.New()

	token := newToken("tok-integration", recordID, time.Hour)
	require.NoError(t, store.Save(ctx, token))

	got, err := store.Consume(ctx, "tok-integration")
	require.NoError(t, err)
	assert.Equal(t, recordID, got.RecordID)

	_, err = store.Consume(ctx, "tok-integration")
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestRedisTokenStoreConcurrentConsumeAgainstRealRedis(t *testing.T) {
	store := NewRedisTokenStore(startRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newToken("tok-race", uuid.New(), time.Hour)))

	const racers = 20
	var successes atomic.Int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, "tok-race"); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load())
}
