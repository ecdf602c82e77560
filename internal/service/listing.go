package service

import (
	"context"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
)

// Page size bounds for listings.
const (
	DefaultPageSize = 20
	MinPageSize     = 10
	MaxPageSize     = 200
)

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page int
	Size int
}

// normalize applies the defaults and clamps the size to [MinPageSize, MaxPageSize].
func (p Pagination) normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Size <= 0:
		p.Size = DefaultPageSize
	case p.Size < MinPageSize:
		p.Size = MinPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Size
}

func newPage[T any](items []T, total int, p Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: (total + p.Size - 1) / p.Size,
	}
}

// RawQuestionQuery filters a raw question listing. Zero values match all.
type RawQuestionQuery struct {
	Status         domain.QuestionStatus
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	Pagination
}

func (q RawQuestionQuery) validate() error {
	if q.Status != "" && !q.Status.Valid() {
		return domain.NewValidationError("status", "is not a known status", domain.ErrInvalidStatus)
	}
	if q.Type != "" && !q.Type.Valid() {
		return domain.NewValidationError("type", "must be choice, blank or solution", domain.ErrInvalidQuestionType)
	}
	if q.Difficulty != 0 && (q.Difficulty < domain.MinDifficulty || q.Difficulty > domain.MaxDifficulty) {
		return domain.NewValidationError("difficulty", "must be between 1 and 5", domain.ErrInvalidDifficulty)
	}
	return nil
}

// QuestionQuery filters a promoted question listing. Zero values match all.
type QuestionQuery struct {
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	Pagination
}

// ListRaw pages through raw questions, newest first.
func (s *questionServiceImpl) ListRaw(ctx context.Context, q RawQuestionQuery) (*Page[*domain.RawQuestion], error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	p := q.Pagination.normalize()

	filter := store.RawQuestionFilter{
		Status:         q.Status,
		Type:           q.Type,
		KnowledgePoint: q.KnowledgePoint,
		Difficulty:     q.Difficulty,
	}
	total, err := s.rawStore.Count(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count raw questions", "error", err)
		return nil, NewQuestionServiceError("list_raw", "failed to count raw questions", err)
	}

	filter.Limit = p.Size
	filter.Offset = p.offset()
	items, err := s.rawStore.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list raw questions", "error", err)
		return nil, NewQuestionServiceError("list_raw", "failed to list raw questions", err)
	}
	return newPage(items, total, p), nil
}

// GetRaw returns one raw question.
func (s *questionServiceImpl) GetRaw(ctx context.Context, rawID int64) (*domain.RawQuestion, error) {
	raw, err := s.rawStore.GetByID(ctx, rawID)
	if err != nil {
		return nil, NewQuestionServiceError("get_raw", "failed to load raw question", err)
	}
	return raw, nil
}

// ListQuestions pages through promoted questions, newest first.
func (s *questionServiceImpl) ListQuestions(ctx context.Context, q QuestionQuery) (*Page[*domain.Question], error) {
	if err := (RawQuestionQuery{Type: q.Type, Difficulty: q.Difficulty}).validate(); err != nil {
		return nil, err
	}
	p := q.Pagination.normalize()

	filter := store.QuestionFilter{
		Type:           q.Type,
		KnowledgePoint: q.KnowledgePoint,
		Difficulty:     q.Difficulty,
	}
	total, err := s.questions.Count(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count questions", "error", err)
		return nil, NewQuestionServiceError("list_questions", "failed to count questions", err)
	}

	filter.Limit = p.Size
	filter.Offset = p.offset()
	items, err := s.questions.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list questions", "error", err)
		return nil, NewQuestionServiceError("list_questions", "failed to list questions", err)
	}
	return newPage(items, total, p), nil
}
