package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halcyon-health/halcyon/internal/types"
)

const redisKeyPrefix = "halcyon:rc:"

// RedisCache is a redis-backed CacheStore for deployments where multiple
// instances should share memoized responses. Expiry is redis TTL; size
// bounding is left to the server's eviction policy. A nil client fails
// open: every Get misses and every Put is dropped.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (types.CompletionResult, bool) {
	if c.rdb == nil {
		return types.CompletionResult{}, false
	}
	data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return types.CompletionResult{}, false
	}
	var res types.CompletionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return types.CompletionResult{}, false
	}
	return res, true
}

func (c *RedisCache) Put(ctx context.Context, key string, res types.CompletionResult) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	// Best effort; a write failure just means a future miss.
	c.rdb.Set(ctx, redisKeyPrefix+key, data, c.ttl)
}
