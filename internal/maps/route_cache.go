// README: Redis-backed route cache so repeated fare lookups skip the Maps API.
package maps

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "surgecast:route:"

type RouteCache interface {
	Get(ctx context.Context, key string) (Route, bool, error)
	Set(ctx context.Context, key string, r Route) error
}

// CacheKey is stable across letter case and surrounding whitespace.
func CacheKey(origin, destination string) string {
	norm := strings.ToLower(strings.TrimSpace(origin)) + "\x00" + strings.ToLower(strings.TrimSpace(destination))
	sum := sha1.Sum([]byte(norm))
	return cachePrefix + hex.EncodeToString(sum[:])
}

type RedisRouteCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRouteCache(rdb redis.Cmdable, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{rdb: rdb, ttl: ttl}
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (Route, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Route{}, false, nil
	}
	if err != nil {
		return Route{}, false, err
	}
	var r Route
	if err := json.Unmarshal(raw, &r); err != nil {
		return Route{}, false, err
	}
	return r, true, nil
}

func (c *RedisRouteCache) Set(ctx context.Context, key string, r Route) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
