package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis limiter tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisLimiterWindow(t *testing.T) {
	rdb := redisClient(t)
	l := NewRedisLimiter(rdb, 500*time.Millisecond, "ragvault:test:"+uuid.NewString()+":")
	ctx := context.Background()

	const limit = 3
	rejected := 0
	for i := 0; i < limit+1; i++ {
		d, err := l.Admit(ctx, "key", limit)
		require.NoError(t, err)
		if !d.Allowed {
			rejected++
			assert.Greater(t, d.RetryAfter, time.Duration(0))
			assert.LessOrEqual(t, d.RetryAfter, 500*time.Millisecond)
		}
	}
	assert.Equal(t, 1, rejected)

	time.Sleep(600 * time.Millisecond)
	d, err := l.Admit(ctx, "key", limit)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiterStoreFailure(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	_, err := NewRedisLimiter(rdb, time.Minute, "").Admit(context.Background(), "key", 5)
	assert.Error(t, err)
}
