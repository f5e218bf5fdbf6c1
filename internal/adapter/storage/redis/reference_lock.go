package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if this instance still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReferenceLock implements ports.ReferenceLock using Redis SET NX.
type ReferenceLock struct {
	client goredis.Cmdable
	prefix string
	owner  string
}

// NewReferenceLock creates a lock store owned by this process instance.
func NewReferenceLock(client goredis.Cmdable) *ReferenceLock {
	return &ReferenceLock{
		client: client,
		prefix: keyPrefix + "lock:ref:",
		owner:  uuid.NewString(),
	}
}

// Acquire takes the lock for reference. Returns false if someone else holds it.
func (l *ReferenceLock) Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+reference, l.owner, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis reference lock: %w", err)
	}
	return result == "OK", nil
}

// Release drops the lock if this instance still holds it.
func (l *ReferenceLock) Release(ctx context.Context, reference string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + reference}, l.owner).Err(); err != nil {
		return fmt.Errorf("redis reference unlock: %w", err)
	}
	return nil
}
