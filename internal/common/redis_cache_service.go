package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infinite-experiment/hangar/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements CacheInterface on a shared Redis client. Values are
// stored as JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ CacheInterface = (*RedisCache)(nil)

// NewRedisCache pings the client before returning so callers can fall back to
// MemoryCache when Redis is down.
func NewRedisCache(ctx context.Context, client *redis.Client, prefix string) (*RedisCache, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: marshal failed", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, r.key(key), data, duration).Err(); err != nil {
		logging.Warn("Redis cache: set failed", "key", key, "error", err)
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: get failed", "key", key, "error", err)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		logging.Warn("Redis cache: unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return result, true
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		logging.Warn("Redis cache: delete failed", "key", key, "error", err)
	}
}

func (r *RedisCache) GetOrSet(ctx context.Context, key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(ctx, key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	r.Set(ctx, key, val, duration)
	return val, nil
}

// Close is a no-op; the client is owned by whoever created it.
func (r *RedisCache) Close() error {
	return nil
}
