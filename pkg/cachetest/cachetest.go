// Package cachetest connects to the test Redis database and clears it
// between tests so cached state never leaks across test boundaries.
package cachetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/gotestkit/testkit/pkg/settings"
)

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// ConfigFromSettings reads the redis.* settings keys. The database index
// defaults to 1 so tests never flush the development database at index 0.
func ConfigFromSettings(s *settings.Settings) Config {
	return Config{
		Host:     s.String("redis.host", ""),
		Port:     s.Int("redis.port", 6379),
		Password: s.String("redis.password", ""),
		DB:       s.Int("redis.db", 1),
		PoolSize: s.Int("redis.pool_size", 10),
	}
}

// Configured reports whether settings name a Redis host. Suites without one
// skip cache setup entirely.
func (c Config) Configured() bool {
	return c.Host != ""
}

// Connect creates a verified Redis client for the test database.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	return client, nil
}

// Flush empties the client's current Redis database.
func Flush(ctx context.Context, client *redis.Client) error {
	if err := client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("flush test cache: %w", err)
	}
	return nil
}

// Clear flushes the cache and fails the test on error.
func Clear(t testing.TB, client *redis.Client) {
	t.Helper()
	if err := Flush(context.Background(), client); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
}
