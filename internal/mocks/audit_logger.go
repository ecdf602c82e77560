package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/qforge/internal/domain"
)

// MockAuditLogger implements generation.AuditLogger and keeps every entry.
type MockAuditLogger struct {
	RecordFn func(ctx context.Context, entry *domain.APICallLog) error

	mu      sync.Mutex
	entries []*domain.APICallLog
}

// Record implements generation.AuditLogger.
func (m *MockAuditLogger) Record(ctx context.Context, entry *domain.APICallLog) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()

	if m.RecordFn != nil {
		return m.RecordFn(ctx, entry)
	}
	return nil
}

// Entries returns a copy of the recorded entries.
func (m *MockAuditLogger) Entries() []*domain.APICallLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.APICallLog(nil), m.entries...)
}
