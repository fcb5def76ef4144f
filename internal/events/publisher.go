// Package events publishes a domain event for every committed status
// history row. Delivery is fire-and-forget, at-least-once.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"order_manager/internal/models"

	"github.com/go-redis/redis/v8"
)

// StatusChangedEvent mirrors one committed history row. OldStatus is nil
// for the order creation event.
type StatusChangedEvent struct {
	Event     string              `json:"event"`
	OrderID   uint                `json:"order_id"`
	OldStatus *models.OrderStatus `json:"old_status"`
	NewStatus models.OrderStatus  `json:"new_status"`
	Timestamp time.Time           `json:"timestamp"`
}

// Publisher emits order events. Callers must only publish after the
// enclosing transaction has committed.
type Publisher interface {
	StatusChanged(ctx context.Context, event StatusChangedEvent) error
}

type redisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) Publisher {
	return &redisPublisher{rdb: rdb, channel: channel}
}

func (p *redisPublisher) StatusChanged(ctx context.Context, event StatusChangedEvent) error {
	event.Event = "order.status_changed"
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	log.Printf("DOMAIN EVENT PUBLISHED: %s", payload)
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}
