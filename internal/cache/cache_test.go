package cache_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestKey(t *testing.T) {
	t.Parallel()

	a := cache.Key(domain.QuestionTypeChoice, 3, "quadratics", "")
	b := cache.Key(domain.QuestionTypeChoice, 3, "quadratics", "")
	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^question:choice:3:[0-9a-f]{32}:[0-9a-f]{32}$`), a)

	assert.NotEqual(t, a, cache.Key(domain.QuestionTypeBlank, 3, "quadratics", ""))
	assert.NotEqual(t, a, cache.Key(domain.QuestionTypeChoice, 4, "quadratics", ""))
	assert.NotEqual(t, a, cache.Key(domain.QuestionTypeChoice, 3, "vectors", ""))
	assert.NotEqual(t, a, cache.Key(domain.QuestionTypeChoice, 3, "quadratics", "integer roots"))
	assert.NotContains(t, a, "quadratics")
}

func rawQuestion(t *testing.T) *domain.RawQuestion {
	t.Helper()
	content := domain.QuestionContent{
		Question: strings.Repeat("x", 150),
		Answer:   "4",
		Solution: "because",
	}
	raw, err := domain.NewRawQuestion("req1", domain.QuestionTypeBlank, "algebra", 2, "", content)
	require.NoError(t, err)
	return raw
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	raw := rawQuestion(t)
	e := cache.NewEntry(raw)
	assert.Equal(t, "req1", e.RequestID)
	assert.Equal(t, domain.StatusAutoPass, e.Status)
	assert.Equal(t, strings.Repeat("x", 100)+"...", e.Preview.Question)
	assert.Nil(t, e.Preview.ReviewScore)

	raw.Verdict = &domain.Verdict{Passed: false, OverallScore: 40}
	raw.Status = domain.StatusAIReject
	e = cache.NewEntry(raw)
	assert.Equal(t, domain.StatusAIReject, e.Status)
	require.NotNil(t, e.Preview.ReviewScore)
	assert.Equal(t, 40, *e.Preview.ReviewScore)
}

func TestPreviewCache(t *testing.T) {
	t.Parallel()

	t.Run("round trip with ttl", func(t *testing.T) {
		backend := newMemoryBackend()
		c := cache.NewPreviewCache(backend, 0, nil)
		entry := cache.NewEntry(rawQuestion(t))

		c.Put(context.Background(), "k", entry)
		got, ok := c.Get(context.Background(), "k")
		require.True(t, ok)
		assert.Equal(t, entry.RequestID, got.RequestID)
		assert.Equal(t, entry.Preview.Question, got.Preview.Question)
		assert.Equal(t, cache.DefaultTTL, backend.ttls["k"])
	})

	t.Run("miss", func(t *testing.T) {
		c := cache.NewPreviewCache(newMemoryBackend(), time.Minute, nil)
		_, ok := c.Get(context.Background(), "absent")
		assert.False(t, ok)
	})

	t.Run("backend failure fails open and warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		backend := newMemoryBackend()
		backend.err = cache.ErrCacheUnavailable
		c := cache.NewPreviewCache(backend, time.Minute, logger)

		_, ok := c.Get(context.Background(), "k")
		assert.False(t, ok)
		c.Put(context.Background(), "k", cache.NewEntry(rawQuestion(t)))

		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), "cache read failed")
		assert.Contains(t, buf.String(), "cache write failed")
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		backend := newMemoryBackend()
		backend.data["k"] = []byte("not json")
		c := cache.NewPreviewCache(backend, time.Minute, nil)
		_, ok := c.Get(context.Background(), "k")
		assert.False(t, ok)
	})

	t.Run("nil backend disables caching", func(t *testing.T) {
		c := cache.NewPreviewCache(nil, time.Minute, nil)
		c.Put(context.Background(), "k", cache.NewEntry(rawQuestion(t)))
		_, ok := c.Get(context.Background(), "k")
		assert.False(t, ok)
	})

	t.Run("noop backend", func(t *testing.T) {
		_, err := cache.Noop{}.Get(context.Background(), "k")
		assert.True(t, errors.Is(err, cache.ErrMiss))
	})
}
