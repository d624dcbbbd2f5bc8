package common

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryCache is the process-local cache used when Redis is not configured.
type MemoryCache struct {
	cache *cache.Cache
}

var _ CacheInterface = (*MemoryCache)(nil)

func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(defaultExpiration, cleanupInterval)}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, duration time.Duration) {
	m.cache.Set(key, value, duration)
}

func (m *MemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return m.cache.Get(key)
}

func (m *MemoryCache) Delete(_ context.Context, key string) {
	m.cache.Delete(key)
}

func (m *MemoryCache) GetOrSet(ctx context.Context, key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := m.Get(ctx, key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	m.Set(ctx, key, val, duration)
	return val, nil
}

func (m *MemoryCache) Close() error {
	return nil
}
