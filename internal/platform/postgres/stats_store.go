package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/store"
)

// PostgresStatsStore implements store.StatsStore.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgresStatsStore.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*PostgresStatsStore)(nil)

// StatusCounts implements store.StatsStore.StatusCounts
func (s *PostgresStatsStore) StatusCounts(ctx context.Context) (map[domain.QuestionStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM raw_questions GROUP BY status`)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to count statuses",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.QuestionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.QuestionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return counts, nil
}

// QuestionCount implements store.StatsStore.QuestionCount
func (s *PostgresStatsStore) QuestionCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// ProviderUsage implements store.StatsStore.ProviderUsage
func (s *PostgresStatsStore) ProviderUsage(ctx context.Context, since time.Time) ([]store.ProviderUsage, error) {
	query := `
		SELECT
			provider,
			COUNT(*),
			COUNT(*) FILTER (WHERE status_code = 200),
			COUNT(*) FILTER (WHERE error_message IS NOT NULL),
			COALESCE(AVG(response_time_ms), 0)::float8,
			COALESCE(SUM(request_tokens), 0),
			COALESCE(SUM(response_tokens), 0),
			COALESCE(SUM(cost), 0)::float8
		FROM api_logs
		WHERE created_at >= $1
		GROUP BY provider
		ORDER BY provider
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to aggregate api usage",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.ProviderUsage
	for rows.Next() {
		var u store.ProviderUsage
		if err := rows.Scan(
			&u.Provider,
			&u.TotalCalls,
			&u.SuccessfulCalls,
			&u.FailedCalls,
			&u.AvgResponseTimeMS,
			&u.RequestTokens,
			&u.ResponseTokens,
			&u.TotalCost,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}
