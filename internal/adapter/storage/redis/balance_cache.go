package redis

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// BalanceCache is a best-effort read cache in front of the wallet balance
// query. Mutations invalidate; a stale or unavailable cache only costs a
// database read, so errors are surfaced for logging but never fatal.
type BalanceCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
		ttl:    ttl,
	}
}

// Get returns the cached balance for a seller. ok is false on miss.
func (c *BalanceCache) Get(ctx context.Context, sellerID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+sellerID).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

// Set stores a balance with TTL.
func (c *BalanceCache) Set(ctx context.Context, sellerID string, balance int64) error {
	return c.client.Set(ctx, c.prefix+sellerID, strconv.FormatInt(balance, 10), c.ttl).Err()
}

// Invalidate drops the cached balance after a credit or adjustment.
func (c *BalanceCache) Invalidate(ctx context.Context, sellerID string) error {
	return c.client.Del(ctx, c.prefix+sellerID).Err()
}
