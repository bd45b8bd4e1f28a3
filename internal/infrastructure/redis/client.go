package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rollingbite/checkout/internal/infrastructure/config"
	"github.com/rollingbite/checkout/pkg/retry"
)

// NewClient connects to Redis, retrying with backoff until the server is
// reachable. Streams and locks both ride on this one client.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	retryCfg := retry.DefaultConfig()
	if cfg.ConnectRetries > 0 {
		retryCfg.MaxAttempts = uint(cfg.ConnectRetries)
	}
	if cfg.ConnectRetryDelay > 0 {
		retryCfg.InitialDelay = cfg.ConnectRetryDelay
	}

	if err := retry.Do(ctx, retryCfg, func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr(), err)
	}

	return client, nil
}
