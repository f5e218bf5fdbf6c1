package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SettledCache implements ports.SettledReferenceCache.
// It is only a fast path; the transactions table stays authoritative.
type SettledCache struct {
	client goredis.Cmdable
	prefix string
}

// NewSettledCache creates a new Redis-backed settled-reference cache.
func NewSettledCache(client goredis.Cmdable) *SettledCache {
	return &SettledCache{
		client: client,
		prefix: keyPrefix + "settled:",
	}
}

// IsSettled reports whether reference was recorded as terminal.
func (c *SettledCache) IsSettled(ctx context.Context, reference string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+reference).Result()
	if err != nil {
		return false, fmt.Errorf("redis settled get: %w", err)
	}
	return n == 1, nil
}

// MarkSettled records reference as terminal for ttl.
func (c *SettledCache) MarkSettled(ctx context.Context, reference string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+reference, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis settled set: %w", err)
	}
	return nil
}
