package store

import (
	"context"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
)

// ProviderUsage aggregates api_logs rows for one provider.
type ProviderUsage struct {
	Provider          string  `json:"provider"`
	TotalCalls        int     `json:"totalCalls"`
	SuccessfulCalls   int     `json:"successfulCalls"`
	FailedCalls       int     `json:"failedCalls"`
	AvgResponseTimeMS float64 `json:"avgResponseTimeMs"`
	RequestTokens     int64   `json:"requestTokens"`
	ResponseTokens    int64   `json:"responseTokens"`
	TotalCost         float64 `json:"totalCost"`
}

// StatsStore answers the aggregate queries behind the statistics endpoint.
type StatsStore interface {
	// StatusCounts returns the number of raw questions per status.
	// Statuses without rows are absent from the map.
	StatusCounts(ctx context.Context) (map[domain.QuestionStatus]int, error)

	// QuestionCount returns the number of promoted questions.
	QuestionCount(ctx context.Context) (int, error)

	// ProviderUsage aggregates audit rows created at or after since, per provider.
	ProviderUsage(ctx context.Context, since time.Time) ([]ProviderUsage, error)
}
