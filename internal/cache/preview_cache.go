package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/redact"
)

// PreviewCache stores pipeline entries as JSON in a Backend. Every method
// fails open.
type PreviewCache struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewPreviewCache wraps backend. A non-positive ttl selects DefaultTTL and a
// nil backend disables caching.
func NewPreviewCache(backend Backend, ttl time.Duration, logger *slog.Logger) *PreviewCache {
	if backend == nil {
		backend = Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger.With("component", "preview_cache"),
	}
}

// Get returns the entry stored under key. Misses, backend errors and corrupt
// entries all report false.
func (c *PreviewCache) Get(ctx context.Context, key string) (*Entry, bool) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.WarnContext(ctx, "cache read failed, treating as miss",
				"key", key,
				"error", redact.Error(err))
		}
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.WarnContext(ctx, "discarding corrupt cache entry",
			"key", key,
			"error", err)
		return nil, false
	}
	return &e, true
}

// Put stores e under key with the configured TTL. Failures are logged and
// ignored.
func (c *PreviewCache) Put(ctx context.Context, key string, e *Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode cache entry", "key", key, "error", err)
		return
	}

	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "cache write failed",
			"key", key,
			"error", redact.Error(err))
		return
	}
	c.logger.DebugContext(ctx, "cache entry written",
		"key", key,
		"request_id", e.RequestID,
		"ttl", c.ttl)
}

// Noop is a Backend that stores nothing. It is used when no cache is
// configured.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
