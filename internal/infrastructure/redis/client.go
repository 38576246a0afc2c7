// Package redis connects the idempotency store and market-quote cache to Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options configures the client.
type Options struct {
	URL      string
	PoolSize int
	// ConnectRetries bounds the extra pings tried while Redis starts up.
	ConnectRetries int
	// RetryInterval is the first wait between pings.
	RetryInterval time.Duration
}

// NewClient opens a client and waits until Redis answers a ping.
func NewClient(ctx context.Context, opts Options, logger zerolog.Logger) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}

	client := redis.NewClient(redisOpts)

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(opts.ConnectRetries, 0))), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("addr", redisOpts.Addr).Msg("redis not reachable")
			return err
		}
		return nil
	}, policy)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
