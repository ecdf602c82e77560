package store

import (
	"context"

	"github.com/phrazzld/qforge/internal/domain"
)

// APILogStore persists one audit row per external model attempt.
// It satisfies generation.AuditLogger.
type APILogStore interface {
	Record(ctx context.Context, entry *domain.APICallLog) error
}
