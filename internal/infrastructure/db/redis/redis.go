package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStartupWait = 5 * time.Second
	retryInterval      = 250 * time.Millisecond
)

// Config describes the refresh token cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	// StartupWait bounds how long Connect keeps pinging a cache that is
	// still starting.
	StartupWait time.Duration
}

// Connect returns a client once the server answers PING. Failed pings are
// retried until StartupWait runs out or ctx ends.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	wait := cfg.StartupWait
	if wait <= 0 {
		wait = defaultStartupWait
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
		case <-ticker.C:
		}
	}
}

// Check adapts client to a readiness probe.
func Check(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
