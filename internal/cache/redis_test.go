package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Redis when CONSENTSYNC_TEST_REDIS_ADDR is set.
func TestRedisCache_GetSet(t *testing.T) {
	addr := os.Getenv("CONSENTSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CONSENTSYNC_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(ctx).Err())

	c := NewRedisCacheFromClient(rdb, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	key := "consentsync:test:" + t.Name()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	miss, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, key, []byte(`{"a":[]}`)))

	hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":[]}`), hit)

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
