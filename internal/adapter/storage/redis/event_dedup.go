package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDedupStore implements ports.EventDedup using Redis SET NX.
// It is the fast-path suppression of redelivered webhook events; the
// ownership records remain the durable idempotency anchor.
type EventDedupStore struct {
	client *goredis.Client
	prefix string
}

// NewEventDedupStore creates a new Redis-backed event dedup store.
func NewEventDedupStore(client *goredis.Client) *EventDedupStore {
	return &EventDedupStore{
		client: client,
		prefix: "event:",
	}
}

// MarkSeen atomically records the event id if unseen.
// Returns true if the event is new, false if it was already delivered.
func (s *EventDedupStore) MarkSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	key := s.prefix + eventID
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists: this event id was delivered before
			return false, nil
		}
		return false, fmt.Errorf("redis event dedup: %w", err)
	}
	return result == "OK", nil
}

// Forget releases a claimed event id so the provider's redelivery is
// processed again after a failed settlement.
func (s *EventDedupStore) Forget(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, s.prefix+eventID).Err()
}
