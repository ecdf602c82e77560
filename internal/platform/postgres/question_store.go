package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.QuestionStore.Create
func (s *PostgresQuestionStore) Create(ctx context.Context, q *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var options []byte
	if len(q.Options) > 0 {
		var err error
		if options, err = json.Marshal(q.Options); err != nil {
			return fmt.Errorf("%w: failed to encode options: %w", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO questions (
			raw_question_id, type, knowledge_point, difficulty, question_text,
			options, correct_answer, solution, quality_score, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		q.RawQuestionID,
		string(q.Type),
		q.KnowledgePoint,
		q.Difficulty,
		q.QuestionText,
		options,
		q.CorrectAnswer,
		q.Solution,
		q.QualityScore,
		q.CreatedAt,
	).Scan(&q.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to create question",
			slog.String("error", err.Error()),
			slog.Int64("raw_question_id", q.RawQuestionID))
		return MapError(err)
	}

	log.InfoContext(ctx, "question created",
		slog.Int64("question_id", q.ID),
		slog.Int64("raw_question_id", q.RawQuestionID))
	return nil
}

// GetByID implements store.QuestionStore.GetByID
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuestionNotFound
		}
		return nil, MapError(err)
	}
	return q, nil
}

func questionWhere(f store.QuestionFilter) *whereBuilder {
	w := &whereBuilder{}
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

// List implements store.QuestionStore.List
func (s *PostgresQuestionStore) List(ctx context.Context, filter store.QuestionFilter) ([]*domain.Question, error) {
	w := questionWhere(filter)
	query := `SELECT ` + questionColumns + ` FROM questions` + w.clause() +
		` ORDER BY created_at DESC, id DESC` + w.page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to list questions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
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

// Count implements store.QuestionStore.Count
func (s *PostgresQuestionStore) Count(ctx context.Context, filter store.QuestionFilter) (int, error) {
	w := questionWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`+w.clause(), w.args...).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}
