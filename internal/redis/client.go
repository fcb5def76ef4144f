package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Initialize connects to Redis and verifies the connection. The returned
// client backs the idempotency guard and the domain event publisher.
func Initialize(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}
