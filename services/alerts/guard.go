package alerts

import (
	"context"
	"time"

	"orgalerts/utils"

	"github.com/go-redis/redis/v8"
)

// IdempotencyGuard claims an alert id so concurrent or repeated triggers for
// the same alert dispatch once.
type IdempotencyGuard interface {
	// Acquire reports true when the caller owns the dispatch for key.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release drops the claim so the alert can be dispatched again.
	Release(ctx context.Context, key string) error
}

// leaseMargin covers the failure status write and release after a timed-out run.
const leaseMargin = 30 * time.Second

// LeaseTTL is how long a dispatch claim lives: one pipeline run plus a margin.
// A claim left by a crashed worker expires so a redelivered task can dispatch.
// Long-lived dedup comes from notificationsSent and the queue task id.
func LeaseTTL(pipelineTimeout time.Duration) time.Duration {
	if pipelineTimeout <= 0 {
		pipelineTimeout = 10 * time.Minute
	}
	return pipelineTimeout + leaseMargin
}

// RedisGuard keeps claims as SETNX keys with a lease TTL.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = LeaseTTL(0)
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, utils.DispatchKeyPrefix+key, time.Now().Unix(), g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, utils.DispatchKeyPrefix+key).Err()
}

// noopGuard always grants the claim.
type noopGuard struct{}

func (noopGuard) Acquire(context.Context, string) (bool, error) { return true, nil }
func (noopGuard) Release(context.Context, string) error         { return nil }
