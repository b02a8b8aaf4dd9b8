package maps

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRouteCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("SURGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SURGE_TEST_REDIS_ADDR not set; skipping Redis-backed tests")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := CacheKey("test-origin-"+t.Name(), "test-destination")
	t.Cleanup(func() { rdb.Del(ctx, key) })

	c := NewRedisRouteCache(rdb, time.Minute)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Route{DistanceKm: 12.4, DurationMin: 31}
	require.NoError(t, c.Set(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
