package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Idempotency remembers processed keys for a while.
type Idempotency struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewIdempotency(client *redis.Client, prefix string, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &Idempotency{client: client, prefix: prefix, ttl: ttl}
}

func (i *Idempotency) key(id string) string {
	return i.prefix + ":" + id
}

// Claim marks id as processed. It reports false when id was already claimed.
func (i *Idempotency) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := i.client.SetNX(ctx, i.key(id), "1", i.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", i.key(id), err)
	}
	return ok, nil
}

// Release forgets id so a failed attempt can be retried.
func (i *Idempotency) Release(ctx context.Context, id string) error {
	if err := i.client.Del(ctx, i.key(id)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", i.key(id), err)
	}
	return nil
}
