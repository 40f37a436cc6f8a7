// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"orgalerts/config"

	"github.com/go-redis/redis/v8"
)

// NewCacheClient connects the Redis client used for dispatch idempotency keys.
func NewCacheClient(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	return client, nil
}

// NewQueueMonitorClient returns a client on the task queue DB, used for health pings only.
func NewQueueMonitorClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
}
