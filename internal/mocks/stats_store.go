package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
)

// MockStatsStore implements store.StatsStore for testing.
type MockStatsStore struct {
	StatusCountsFn  func(ctx context.Context) (map[domain.QuestionStatus]int, error)
	QuestionCountFn func(ctx context.Context) (int, error)
	ProviderUsageFn func(ctx context.Context, since time.Time) ([]store.ProviderUsage, error)

	// Default return values
	Counts    map[domain.QuestionStatus]int
	Questions int
	Usage     []store.ProviderUsage
	Err       error
}

var _ store.StatsStore = (*MockStatsStore)(nil)

// StatusCounts implements store.StatsStore.
func (m *MockStatsStore) StatusCounts(ctx context.Context) (map[domain.QuestionStatus]int, error) {
	if m.StatusCountsFn != nil {
		return m.StatusCountsFn(ctx)
	}
	return m.Counts, m.Err
}

// QuestionCount implements store.StatsStore.
func (m *MockStatsStore) QuestionCount(ctx context.Context) (int, error) {
	if m.QuestionCountFn != nil {
		return m.QuestionCountFn(ctx)
	}
	return m.Questions, m.Err
}

// ProviderUsage implements store.StatsStore.
func (m *MockStatsStore) ProviderUsage(ctx context.Context, since time.Time) ([]store.ProviderUsage, error) {
	if m.ProviderUsageFn != nil {
		return m.ProviderUsageFn(ctx, since)
	}
	return m.Usage, m.Err
}
