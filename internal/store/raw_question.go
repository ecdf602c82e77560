package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/qforge/internal/domain"
)

// RawQuestionFilter narrows List and Count. Zero values mean "any".
type RawQuestionFilter struct {
	Status         domain.QuestionStatus
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	Limit          int
	Offset         int
}

// ReviewUpdate is the verdict write applied once a review succeeds.
type ReviewUpdate struct {
	Verdict domain.Verdict
	Tokens  int
	Cost    float64
	Status  domain.QuestionStatus
}

// RawQuestionStore defines the interface for raw question persistence.
type RawQuestionStore interface {
	// Create inserts q and sets its ID and timestamps.
	// Returns ErrDuplicate if a raw question already exists for q.RequestID,
	// or ErrInvalidEntity if q fails validation.
	Create(ctx context.Context, q *domain.RawQuestion) error

	// GetByID returns ErrRawQuestionNotFound if no row has the given id.
	GetByID(ctx context.Context, id int64) (*domain.RawQuestion, error)

	// GetByRequestID returns ErrRawQuestionNotFound if no row has the given request id.
	GetByRequestID(ctx context.Context, requestID string) (*domain.RawQuestion, error)

	// UpdateReview stores the verdict only while the row has no verdict and
	// is not in a human-owned status. Otherwise it returns ErrStaleTransition.
	UpdateReview(ctx context.Context, id int64, update ReviewUpdate) error

	// MarkReviewFailed records why review failed. The status is left unchanged.
	MarkReviewFailed(ctx context.Context, id int64, reason string) error

	// List returns matching rows, newest first.
	List(ctx context.Context, filter RawQuestionFilter) ([]*domain.RawQuestion, error)

	// Count returns the number of rows matching filter, ignoring Limit and Offset.
	Count(ctx context.Context, filter RawQuestionFilter) (int, error)

	// ListPendingReview returns auto_pass rows without a verdict, oldest first.
	ListPendingReview(ctx context.Context, limit int) ([]*domain.RawQuestion, error)

	// Confirm promotes the raw question into the questions table and marks it
	// confirmed, atomically. It returns the new question id.
	// Returns ErrRawQuestionNotFound, ErrAlreadyConfirmed or ErrAlreadyRejected.
	Confirm(ctx context.Context, id int64, feedback *string) (int64, error)

	// Reject marks the raw question human_reject with the given feedback.
	// Returns ErrRawQuestionNotFound, ErrAlreadyConfirmed or ErrAlreadyRejected.
	Reject(ctx context.Context, id int64, feedback string) error

	// WithTx returns a new store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RawQuestionStore
}
