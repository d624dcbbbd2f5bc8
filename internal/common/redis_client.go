package common

import (
	"context"
	"fmt"
	"time"

	"infinite-experiment/hangar/internal/logging"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the shared client for the cache and the safety-alert
// stream. A failed ping is logged; the pool keeps reconnecting.
func NewRedisClient(host, port, password string) *redis.Client {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	logging.Info("Initializing Redis client", "addr", addr)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Error("Failed to ping Redis", "addr", addr, "error", err)
		return client
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client
}
