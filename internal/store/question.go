package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/qforge/internal/domain"
)

// QuestionFilter narrows promoted question listings. Zero values mean "any".
type QuestionFilter struct {
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	Limit          int
	Offset         int
}

// QuestionStore defines the interface for promoted question persistence.
// Promoted questions are immutable; they are only created by
// RawQuestionStore.Confirm or by Create inside the same transaction.
type QuestionStore interface {
	// Create inserts q and sets its ID and CreatedAt.
	// Returns ErrDuplicate if the raw question was already promoted.
	Create(ctx context.Context, q *domain.Question) error

	// GetByID returns ErrQuestionNotFound if no row has the given id.
	GetByID(ctx context.Context, id int64) (*domain.Question, error)

	List(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error)
	Count(ctx context.Context, filter QuestionFilter) (int, error)

	WithTx(tx *sql.Tx) QuestionStore
}
