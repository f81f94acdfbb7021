package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions tunes the client beyond what the URL carries
type RedisOptions struct {
	MaxRetries  int
	PoolSize    int
	DialTimeout time.Duration
}

// NewRedisClient parses a redis:// URL, applies timeouts and checks the
// connection with a ping
func NewRedisClient(ctx context.Context, redisURL string, ro RedisOptions) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if ro.MaxRetries > 0 {
		opts.MaxRetries = ro.MaxRetries
	}
	if ro.PoolSize > 0 {
		opts.PoolSize = ro.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	if ro.DialTimeout > 0 {
		opts.DialTimeout = ro.DialTimeout
	}
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
