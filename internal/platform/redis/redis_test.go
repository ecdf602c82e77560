package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/platform/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*redis.Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	b, err := redis.New(redis.Config{
		URL:          "redis://" + mr.Addr(),
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestBackend(t *testing.T) {
	t.Parallel()

	t.Run("set then get", func(t *testing.T) {
		b, mr := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Set(ctx, "question:k", []byte(`{"a":1}`), 300*time.Second))
		got, err := b.Get(ctx, "question:k")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
		assert.Equal(t, 300*time.Second, mr.TTL("question:k"))
	})

	t.Run("expired key is a miss", func(t *testing.T) {
		b, mr := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Second))
		mr.FastForward(2 * time.Second)

		_, err := b.Get(ctx, "k")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("stopped server is unavailable", func(t *testing.T) {
		b, mr := newBackend(t)
		mr.Close()

		_, err := b.Get(context.Background(), "k")
		assert.ErrorIs(t, err, cache.ErrCacheUnavailable)
		assert.ErrorIs(t, b.Set(context.Background(), "k", []byte("v"), time.Second), cache.ErrCacheUnavailable)
		assert.ErrorIs(t, b.Ping(context.Background()), cache.ErrCacheUnavailable)
	})

	t.Run("preview cache fails open over a stopped server", func(t *testing.T) {
		b, mr := newBackend(t)
		mr.Close()

		pc := cache.NewPreviewCache(b, time.Minute, nil)
		_, ok := pc.Get(context.Background(), "k")
		assert.False(t, ok)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := redis.New(redis.Config{URL: "://nope"})
		assert.Error(t, err)
	})
}
