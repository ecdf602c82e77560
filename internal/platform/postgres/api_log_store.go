package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/store"
)

// PostgresAPILogStore implements store.APILogStore. It is the audit sink
// handed to the generation and review adapters.
type PostgresAPILogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAPILogStore creates a new PostgresAPILogStore.
// If logger is nil, a default logger will be used.
func NewPostgresAPILogStore(db store.DBTX, logger *slog.Logger) *PostgresAPILogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAPILogStore{
		db:     db,
		logger: logger.With(slog.String("component", "api_log_store")),
	}
}

var _ store.APILogStore = (*PostgresAPILogStore)(nil)

// Record implements store.APILogStore.Record
func (s *PostgresAPILogStore) Record(ctx context.Context, entry *domain.APICallLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var errMsg *string
	if entry.ErrorMessage != "" {
		errMsg = &entry.ErrorMessage
	}

	query := `
		INSERT INTO api_logs (
			request_id, provider, endpoint, request_data, response_data,
			request_tokens, response_tokens, response_time_ms, status_code,
			error_message, cost, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		entry.RequestID,
		entry.Provider,
		entry.Endpoint,
		nullJSON(entry.RequestData),
		nullJSON(entry.ResponseData),
		entry.RequestTokens,
		entry.ResponseTokens,
		entry.ResponseTimeMS,
		entry.StatusCode,
		errMsg,
		entry.Cost,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to record api call",
			slog.String("error", err.Error()),
			slog.String("request_id", entry.RequestID),
			slog.String("provider", entry.Provider))
		return MapError(err)
	}
	return nil
}

// nullJSON maps an empty payload to SQL NULL.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
