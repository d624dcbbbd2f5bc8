package common

import (
	"context"
	"time"
)

// CacheInterface is implemented by the in-memory and Redis caches.
type CacheInterface interface {
	Set(ctx context.Context, key string, value interface{}, duration time.Duration)

	// Get returns the value and true if found. Redis values come back JSON-decoded
	// (numbers as float64, objects as map[string]interface{}).
	Get(ctx context.Context, key string) (interface{}, bool)

	Delete(ctx context.Context, key string)

	// GetOrSet returns the cached value or stores the loader's result.
	GetOrSet(ctx context.Context, key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	Close() error
}
