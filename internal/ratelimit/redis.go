package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared across instances, one INCR'd key per
// actor per window. The key expires with the window, so a new window starts
// on the next creation attempt.
type Redis struct {
	client *redis.Client
	max    int
	period time.Duration
	prefix string
}

func NewRedis(client *redis.Client, max int, period time.Duration) *Redis {
	return &Redis{
		client: client,
		max:    max,
		period: period,
		prefix: "ratelimit:bid:",
	}
}

func (r *Redis) Allow(ctx context.Context, actorID string) (bool, error) {
	key := r.prefix + actorID

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.period).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(r.max), nil
}
