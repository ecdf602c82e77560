package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
)

// MockQuestionStore implements store.QuestionStore for testing.
type MockQuestionStore struct {
	CreateFn  func(ctx context.Context, q *domain.Question) error
	GetByIDFn func(ctx context.Context, id int64) (*domain.Question, error)
	ListFn    func(ctx context.Context, filter store.QuestionFilter) ([]*domain.Question, error)
	CountFn   func(ctx context.Context, filter store.QuestionFilter) (int, error)

	mu     sync.Mutex
	rows   map[int64]*domain.Question
	nextID int64
}

// NewMockQuestionStore creates an empty in-memory store.
func NewMockQuestionStore() *MockQuestionStore {
	return &MockQuestionStore{rows: make(map[int64]*domain.Question)}
}

var _ store.QuestionStore = (*MockQuestionStore)(nil)

// Create implements store.QuestionStore.
func (m *MockQuestionStore) Create(ctx context.Context, q *domain.Question) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, q)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.RawQuestionID == q.RawQuestionID {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	q.ID = m.nextID
	c := *q
	m.rows[q.ID] = &c
	return nil
}

// GetByID implements store.QuestionStore.
func (m *MockQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}
	c := *q
	return &c, nil
}

func (m *MockQuestionStore) filter(f store.QuestionFilter) []*domain.Question {
	var out []*domain.Question
	for _, q := range m.rows {
		if f.Type != "" && q.Type != f.Type {
			continue
		}
		if f.KnowledgePoint != "" && q.KnowledgePoint != f.KnowledgePoint {
			continue
		}
		if f.Difficulty > 0 && q.Difficulty != f.Difficulty {
			continue
		}
		c := *q
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// List implements store.QuestionStore.
func (m *MockQuestionStore) List(ctx context.Context, f store.QuestionFilter) ([]*domain.Question, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.filter(f), f.Limit, f.Offset), nil
}

// Count implements store.QuestionStore.
func (m *MockQuestionStore) Count(ctx context.Context, f store.QuestionFilter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filter(f)), nil
}

// WithTx implements store.QuestionStore by returning the same mock.
func (m *MockQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return m
}
