package webhooks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers delivery ids so a replayed delivery has no effect.
type Deduper interface {
	// Claim reports whether id was not seen before and is now reserved.
	Claim(ctx context.Context, id string) (bool, error)
	// Release forgets id so the delivery can be retried.
	Release(ctx context.Context, id string) error
}

const dedupeKeyPrefix = "webhooks:delivery:"

type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, id string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, id string) error {
	return d.client.Del(ctx, dedupeKeyPrefix+id).Err()
}

// NoopDeduper accepts every delivery.
type NoopDeduper struct{}

func (NoopDeduper) Claim(context.Context, string) (bool, error) { return true, nil }
func (NoopDeduper) Release(context.Context, string) error        { return nil }
