// Package idempotency makes order creation safe to retry verbatim by
// mapping a client-supplied key to the order it already produced.
package idempotency

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "idempotency_order_"

// Guard records the outcome of completed creations. Lookup and Record are
// not coupled to the locks that guard stock: two concurrent first-time uses
// of the same key can both miss and both execute the workflow. Stock
// exclusivity still prevents over-selling in that window, but not a
// duplicate order for one logical request.
type Guard interface {
	// Lookup returns the recorded order ID for key, and whether the key was
	// seen within the retention window.
	Lookup(ctx context.Context, key string) (uint, bool, error)

	// Record stores key -> orderID. Write-once: a key that already resolves
	// to an order is never overwritten.
	Record(ctx context.Context, key string, orderID uint) error
}

type redisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGuard builds a Guard over Redis. ttl bounds the retention window;
// 24 hours matches the creation retry contract.
func NewRedisGuard(rdb *redis.Client, ttl time.Duration) Guard {
	return &redisGuard{rdb: rdb, ttl: ttl}
}

func (g *redisGuard) Lookup(ctx context.Context, key string) (uint, bool, error) {
	val, err := g.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	orderID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency record for key %q: %w", key, err)
	}
	return uint(orderID), true, nil
}

func (g *redisGuard) Record(ctx context.Context, key string, orderID uint) error {
	// SETNX keeps the first recorded outcome; a concurrent duplicate that
	// lost the race must not replace it.
	err := g.rdb.SetNX(ctx, keyPrefix+key, strconv.FormatUint(uint64(orderID), 10), g.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return nil
}
