package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DuplicateCache implements ports.DuplicateCache using Redis. It is a
// fast-path marker over the ledger's authoritative duplicate check: a
// lost key only costs one extra ledger lookup, never a double apply.
type DuplicateCache struct {
	client *goredis.Client
	prefix string
}

// NewDuplicateCache creates a new Redis-backed duplicate cache.
func NewDuplicateCache(client *goredis.Client) *DuplicateCache {
	return &DuplicateCache{
		client: client,
		prefix: "notif:",
	}
}

// Seen reports whether a notification key has already been applied.
func (c *DuplicateCache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis duplicate check: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records a notification key with TTL. SETNX keeps the first
// delivery's expiry, so a redelivery burst cannot extend the window.
func (c *DuplicateCache) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.SetNX(ctx, c.prefix+key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis duplicate mark: %w", err)
	}
	return nil
}
