package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
)

// MockRawQuestionStore implements store.RawQuestionStore for testing.
// Confirmed questions are written to Questions, which can be shared with a
// MockQuestionStore.
type MockRawQuestionStore struct {
	CreateFn            func(ctx context.Context, q *domain.RawQuestion) error
	GetByIDFn           func(ctx context.Context, id int64) (*domain.RawQuestion, error)
	GetByRequestIDFn    func(ctx context.Context, requestID string) (*domain.RawQuestion, error)
	UpdateReviewFn      func(ctx context.Context, id int64, update store.ReviewUpdate) error
	MarkReviewFailedFn  func(ctx context.Context, id int64, reason string) error
	ListFn              func(ctx context.Context, filter store.RawQuestionFilter) ([]*domain.RawQuestion, error)
	CountFn             func(ctx context.Context, filter store.RawQuestionFilter) (int, error)
	ListPendingReviewFn func(ctx context.Context, limit int) ([]*domain.RawQuestion, error)
	ConfirmFn           func(ctx context.Context, id int64, feedback *string) (int64, error)
	RejectFn            func(ctx context.Context, id int64, feedback string) error

	Questions *MockQuestionStore

	mu     sync.Mutex
	rows   map[int64]*domain.RawQuestion
	nextID int64
}

// NewMockRawQuestionStore creates an empty in-memory store.
func NewMockRawQuestionStore() *MockRawQuestionStore {
	return &MockRawQuestionStore{
		rows:      make(map[int64]*domain.RawQuestion),
		Questions: NewMockQuestionStore(),
	}
}

var _ store.RawQuestionStore = (*MockRawQuestionStore)(nil)

func clone(q *domain.RawQuestion) *domain.RawQuestion {
	c := *q
	return &c
}

// Seed stores q as-is, assigning an ID when it has none.
func (m *MockRawQuestionStore) Seed(q *domain.RawQuestion) *domain.RawQuestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == 0 {
		m.nextID++
		q.ID = m.nextID
	} else if q.ID > m.nextID {
		m.nextID = q.ID
	}
	m.rows[q.ID] = clone(q)
	return q
}

// All returns copies of every stored row ordered by ID.
func (m *MockRawQuestionStore) All() []*domain.RawQuestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.RawQuestion, 0, len(m.rows))
	for _, q := range m.rows {
		out = append(out, clone(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create implements store.RawQuestionStore.
func (m *MockRawQuestionStore) Create(ctx context.Context, q *domain.RawQuestion) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, q)
	}
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.RequestID == q.RequestID {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	q.ID = m.nextID
	m.rows[q.ID] = clone(q)
	return nil
}

// GetByID implements store.RawQuestionStore.
func (m *MockRawQuestionStore) GetByID(ctx context.Context, id int64) (*domain.RawQuestion, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return nil, store.ErrRawQuestionNotFound
	}
	return clone(q), nil
}

// GetByRequestID implements store.RawQuestionStore.
func (m *MockRawQuestionStore) GetByRequestID(ctx context.Context, requestID string) (*domain.RawQuestion, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.rows {
		if q.RequestID == requestID {
			return clone(q), nil
		}
	}
	return nil, store.ErrRawQuestionNotFound
}

// UpdateReview implements store.RawQuestionStore with the same write-once
// guard as the database.
func (m *MockRawQuestionStore) UpdateReview(ctx context.Context, id int64, update store.ReviewUpdate) error {
	if m.UpdateReviewFn != nil {
		return m.UpdateReviewFn(ctx, id, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return store.ErrRawQuestionNotFound
	}
	if q.Verdict != nil || q.Status.IsTerminal() {
		return store.ErrStaleTransition
	}
	v := update.Verdict
	tokens, cost := update.Tokens, update.Cost
	q.Verdict = &v
	q.ReviewTokens = &tokens
	q.ReviewCost = &cost
	q.ReviewError = nil
	q.Status = update.Status
	q.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkReviewFailed implements store.RawQuestionStore.
func (m *MockRawQuestionStore) MarkReviewFailed(ctx context.Context, id int64, reason string) error {
	if m.MarkReviewFailedFn != nil {
		return m.MarkReviewFailedFn(ctx, id, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return store.ErrRawQuestionNotFound
	}
	q.ReviewError = &reason
	return nil
}

func (m *MockRawQuestionStore) filter(f store.RawQuestionFilter) []*domain.RawQuestion {
	var out []*domain.RawQuestion
	for _, q := range m.rows {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.Type != "" && q.Type != f.Type {
			continue
		}
		if f.KnowledgePoint != "" && q.KnowledgePoint != f.KnowledgePoint {
			continue
		}
		if f.Difficulty > 0 && q.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, clone(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// List implements store.RawQuestionStore, newest (highest ID) first.
func (m *MockRawQuestionStore) List(ctx context.Context, f store.RawQuestionFilter) ([]*domain.RawQuestion, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.filter(f), f.Limit, f.Offset), nil
}

// Count implements store.RawQuestionStore.
func (m *MockRawQuestionStore) Count(ctx context.Context, f store.RawQuestionFilter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filter(f)), nil
}

// ListPendingReview implements store.RawQuestionStore, oldest first.
func (m *MockRawQuestionStore) ListPendingReview(ctx context.Context, limit int) ([]*domain.RawQuestion, error) {
	if m.ListPendingReviewFn != nil {
		return m.ListPendingReviewFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := m.filter(store.RawQuestionFilter{Status: domain.StatusAutoPass})
	var out []*domain.RawQuestion
	for i := len(pending) - 1; i >= 0; i-- {
		if pending[i].Verdict == nil {
			out = append(out, pending[i])
		}
	}
	return paginate(out, limit, 0), nil
}

func (m *MockRawQuestionStore) decide(id int64) (*domain.RawQuestion, error) {
	q, ok := m.rows[id]
	if !ok {
		return nil, store.ErrRawQuestionNotFound
	}
	switch q.Status {
	case domain.StatusConfirmed:
		return nil, store.ErrAlreadyConfirmed
	case domain.StatusHumanReject:
		return nil, store.ErrAlreadyRejected
	}
	return q, nil
}

// Confirm implements store.RawQuestionStore.
func (m *MockRawQuestionStore) Confirm(ctx context.Context, id int64, feedback *string) (int64, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, id, feedback)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.decide(id)
	if err != nil {
		return 0, err
	}
	promoted := domain.PromoteQuestion(q)
	if err := m.Questions.Create(ctx, promoted); err != nil {
		return 0, err
	}
	q.Status = domain.StatusConfirmed
	q.HumanFeedback = feedback
	return promoted.ID, nil
}

// Reject implements store.RawQuestionStore.
func (m *MockRawQuestionStore) Reject(ctx context.Context, id int64, feedback string) error {
	if m.RejectFn != nil {
		return m.RejectFn(ctx, id, feedback)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.decide(id)
	if err != nil {
		return err
	}
	q.Status = domain.StatusHumanReject
	q.HumanFeedback = &feedback
	return nil
}

// WithTx implements store.RawQuestionStore by returning the same mock.
func (m *MockRawQuestionStore) WithTx(tx *sql.Tx) store.RawQuestionStore {
	return m
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
