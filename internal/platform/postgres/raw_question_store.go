package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/store"
)

// PostgresRawQuestionStore implements the store.RawQuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRawQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRawQuestionStore creates a new PostgreSQL implementation of the RawQuestionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRawQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresRawQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRawQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "raw_question_store")),
	}
}

// Ensure PostgresRawQuestionStore implements store.RawQuestionStore interface
var _ store.RawQuestionStore = (*PostgresRawQuestionStore)(nil)

// WithTx implements store.RawQuestionStore.WithTx
func (s *PostgresRawQuestionStore) WithTx(tx *sql.Tx) store.RawQuestionStore {
	return &PostgresRawQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}

// inTx runs fn in a new transaction when the store holds a *sql.DB, or
// directly on the caller's transaction otherwise.
func (s *PostgresRawQuestionStore) inTx(ctx context.Context, fn func(ctx context.Context, db store.DBTX) error) error {
	if sqlDB, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, tx)
		})
	}
	return fn(ctx, s.db)
}

// Create implements store.RawQuestionStore.Create
func (s *PostgresRawQuestionStore) Create(ctx context.Context, q *domain.RawQuestion) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		log.WarnContext(ctx, "raw question validation failed during create",
			slog.String("error", err.Error()),
			slog.String("request_id", q.RequestID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	generation, err := json.Marshal(q.Content)
	if err != nil {
		return fmt.Errorf("%w: failed to encode generation: %w", store.ErrInvalidEntity, err)
	}

	now := time.Now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = q.CreatedAt

	query := `
		INSERT INTO raw_questions (
			request_id, type, knowledge_point, difficulty, custom_prompt,
			generation, generation_tokens, generation_cost, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = s.db.QueryRowContext(
		ctx,
		query,
		q.RequestID,
		string(q.Type),
		q.KnowledgePoint,
		q.Difficulty,
		q.CustomPrompt,
		generation,
		q.GenerationTokens,
		q.GenerationCost,
		string(q.Status),
		q.CreatedAt,
		q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to create raw question",
			slog.String("error", err.Error()),
			slog.String("request_id", q.RequestID))
		return MapError(err)
	}

	log.InfoContext(ctx, "raw question created",
		slog.Int64("raw_question_id", q.ID),
		slog.String("request_id", q.RequestID),
		slog.String("status", string(q.Status)))
	return nil
}

// GetByID implements store.RawQuestionStore.GetByID
func (s *PostgresRawQuestionStore) GetByID(ctx context.Context, id int64) (*domain.RawQuestion, error) {
	query := `SELECT ` + rawQuestionColumns + ` FROM raw_questions WHERE id = $1`
	q, err := scanRawQuestion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRawQuestionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to get raw question by id",
			slog.String("error", err.Error()),
			slog.Int64("raw_question_id", id))
		return nil, MapError(err)
	}
	return q, nil
}

// GetByRequestID implements store.RawQuestionStore.GetByRequestID
func (s *PostgresRawQuestionStore) GetByRequestID(ctx context.Context, requestID string) (*domain.RawQuestion, error) {
	query := `SELECT ` + rawQuestionColumns + ` FROM raw_questions WHERE request_id = $1`
	q, err := scanRawQuestion(s.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRawQuestionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to get raw question by request id",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID))
		return nil, MapError(err)
	}
	return q, nil
}

// UpdateReview implements store.RawQuestionStore.UpdateReview
// The write is conditional: it applies only while no verdict is stored and
// the status is still owned by the pipeline.
func (s *PostgresRawQuestionStore) UpdateReview(ctx context.Context, id int64, update store.ReviewUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if update.Status != domain.StatusAutoPass && update.Status != domain.StatusAIReject {
		return fmt.Errorf("%w: review cannot set status %q", store.ErrInvalidEntity, update.Status)
	}

	review, err := json.Marshal(update.Verdict)
	if err != nil {
		return fmt.Errorf("%w: failed to encode review: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE raw_questions
		SET review = $2, review_tokens = $3, review_cost = $4, status = $5,
			review_error = NULL, updated_at = $6
		WHERE id = $1
			AND review IS NULL
			AND status IN ('auto_pass', 'ai_reject')
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		id,
		review,
		update.Tokens,
		update.Cost,
		string(update.Status),
		time.Now().UTC(),
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to update review",
			slog.String("error", err.Error()),
			slog.Int64("raw_question_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStaleTransition); err != nil {
		if !errors.Is(err, store.ErrStaleTransition) {
			return err
		}
		exists, existsErr := s.exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return store.ErrRawQuestionNotFound
		}
		log.WarnContext(ctx, "review write skipped, question already reviewed or decided",
			slog.Int64("raw_question_id", id))
		return fmt.Errorf("%w: raw question %d", store.ErrStaleTransition, id)
	}

	log.DebugContext(ctx, "review stored",
		slog.Int64("raw_question_id", id),
		slog.String("status", string(update.Status)))
	return nil
}

func (s *PostgresRawQuestionStore) exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM raw_questions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// MarkReviewFailed implements store.RawQuestionStore.MarkReviewFailed
func (s *PostgresRawQuestionStore) MarkReviewFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE raw_questions SET review_error = $2, updated_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, reason, time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to mark review failed",
			slog.String("error", err.Error()),
			slog.Int64("raw_question_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrRawQuestionNotFound)
}

func rawQuestionWhere(f store.RawQuestionFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.KnowledgePoint != "" {
		w.add("knowledge_point = ?", f.KnowledgePoint)
	}
	if f.Difficulty > 0 {
		w.add("difficulty = ?", f.Difficulty)
	}
	return w
}

// List implements store.RawQuestionStore.List
func (s *PostgresRawQuestionStore) List(ctx context.Context, filter store.RawQuestionFilter) ([]*domain.RawQuestion, error) {
	w := rawQuestionWhere(filter)
	query := `SELECT ` + rawQuestionColumns + ` FROM raw_questions` + w.clause() +
		` ORDER BY created_at DESC, id DESC` + w.page(filter.Limit, filter.Offset)
	return s.query(ctx, query, w.args...)
}

// Count implements store.RawQuestionStore.Count
func (s *PostgresRawQuestionStore) Count(ctx context.Context, filter store.RawQuestionFilter) (int, error) {
	w := rawQuestionWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_questions`+w.clause(), w.args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to count raw questions",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// ListPendingReview implements store.RawQuestionStore.ListPendingReview
func (s *PostgresRawQuestionStore) ListPendingReview(ctx context.Context, limit int) ([]*domain.RawQuestion, error) {
	query := `SELECT ` + rawQuestionColumns + ` FROM raw_questions
		WHERE status = 'auto_pass' AND review IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $1`
	return s.query(ctx, query, limit)
}

func (s *PostgresRawQuestionStore) query(ctx context.Context, query string, args ...any) ([]*domain.RawQuestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to query raw questions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.RawQuestion
	for rows.Next() {
		q, err := scanRawQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// lockForDecision loads the row FOR UPDATE and rejects terminal states.
func lockForDecision(ctx context.Context, db store.DBTX, id int64) (*domain.RawQuestion, error) {
	query := `SELECT ` + rawQuestionColumns + ` FROM raw_questions WHERE id = $1 FOR UPDATE`
	raw, err := scanRawQuestion(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRawQuestionNotFound
		}
		return nil, MapError(err)
	}

	switch raw.Status {
	case domain.StatusConfirmed:
		return nil, store.ErrAlreadyConfirmed
	case domain.StatusHumanReject:
		return nil, store.ErrAlreadyRejected
	}
	return raw, nil
}

// Confirm implements store.RawQuestionStore.Confirm
// The promoted row and the status flip commit or roll back together.
func (s *PostgresRawQuestionStore) Confirm(ctx context.Context, id int64, feedback *string) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var questionID int64
	err := s.inTx(ctx, func(ctx context.Context, db store.DBTX) error {
		raw, err := lockForDecision(ctx, db, id)
		if err != nil {
			return err
		}

		q := domain.PromoteQuestion(raw)
		if err := NewPostgresQuestionStore(db, s.logger).Create(ctx, q); err != nil {
			return err
		}

		result, err := db.ExecContext(ctx,
			`UPDATE raw_questions SET status = $2, human_feedback = $3, updated_at = $4 WHERE id = $1`,
			id, string(domain.StatusConfirmed), feedback, time.Now().UTC())
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrRawQuestionNotFound); err != nil {
			return err
		}

		questionID = q.ID
		return nil
	})
	if err != nil {
		log.WarnContext(ctx, "confirm failed",
			slog.Int64("raw_question_id", id),
			slog.String("error", err.Error()))
		return 0, err
	}

	log.InfoContext(ctx, "raw question confirmed",
		slog.Int64("raw_question_id", id),
		slog.Int64("question_id", questionID))
	return questionID, nil
}

// Reject implements store.RawQuestionStore.Reject
func (s *PostgresRawQuestionStore) Reject(ctx context.Context, id int64, feedback string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.inTx(ctx, func(ctx context.Context, db store.DBTX) error {
		if _, err := lockForDecision(ctx, db, id); err != nil {
			return err
		}

		result, err := db.ExecContext(ctx,
			`UPDATE raw_questions SET status = $2, human_feedback = $3, updated_at = $4 WHERE id = $1`,
			id, string(domain.StatusHumanReject), feedback, time.Now().UTC())
		if err != nil {
			return MapError(err)
		}
		return CheckRowsAffected(result, store.ErrRawQuestionNotFound)
	})
	if err != nil {
		log.WarnContext(ctx, "reject failed",
			slog.Int64("raw_question_id", id),
			slog.String("error", err.Error()))
		return err
	}

	log.InfoContext(ctx, "raw question rejected", slog.Int64("raw_question_id", id))
	return nil
}
