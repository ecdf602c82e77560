// Package redis provides the Redis-backed cache.Backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/qforge/internal/cache"
	goredis "github.com/redis/go-redis/v9"
)

// Config configures the Redis connection. Timeouts are short because the
// cache sits on the request path and must fail fast.
type Config struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Backend implements cache.Backend on Redis GET and SET EX.
type Backend struct {
	client *goredis.Client
}

var _ cache.Backend = (*Backend)(nil)

// New parses cfg.URL and returns a Backend. It does not connect; use Ping
// to check reachability.
func New(cfg Config) (*Backend, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	opts.MaxRetries = 0

	return &Backend{client: goredis.NewClient(opts)}, nil
}

// Get implements cache.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", cache.ErrCacheUnavailable, key, err)
	}
	return val, nil
}

// Set implements cache.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", cache.ErrCacheUnavailable, key, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	return b.client.Close()
}
