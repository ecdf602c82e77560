package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawColumns = []string{
	"id", "request_id", "type", "knowledge_point", "difficulty", "custom_prompt",
	"generation", "generation_tokens", "generation_cost",
	"review", "review_tokens", "review_cost", "review_error",
	"status", "human_feedback", "created_at", "updated_at",
}

const (
	choiceGeneration = `{"question":"What is 2+2?","options":{"A":"3","B":"4","C":"5","D":"6"},"answer":"B","solution":"2+2=4"}`
	passingReview    = `{"passed":true,"overall_score":88,"logic_score":90,"calculation_score":85,"format_score":90,"issues":[],"suggestions":[],"positive_points":[]}`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func addRawRow(rows *sqlmock.Rows, id int64, status domain.QuestionStatus, review []byte) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var reviewTokens, reviewCost any
	if review != nil {
		reviewTokens = int64(120)
		reviewCost = 0.0024
	}
	return rows.AddRow(
		id, "0123456789abcdef0123456789abcdef", "choice", "arithmetic", int64(1), nil,
		[]byte(choiceGeneration), int64(300), 0.005,
		review, reviewTokens, reviewCost, nil,
		string(status), nil, now, now,
	)
}

func exact(sql string) string {
	return regexp.QuoteMeta(sql)
}

var reviewUpdateQuery = `UPDATE raw_questions\s+SET review = \$2`

func TestRawQuestionStore_Create(t *testing.T) {
	t.Parallel()

	newRaw := func(t *testing.T) *domain.RawQuestion {
		raw, err := domain.NewRawQuestion("0123456789abcdef0123456789abcdef", domain.QuestionTypeBlank,
			"fractions", 2, "", domain.QuestionContent{Question: "1/2+1/2=?", Answer: "1", Solution: "sum"})
		require.NoError(t, err)
		return raw
	}

	t.Run("assigns id", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectQuery(exact("INSERT INTO raw_questions")).
			WithArgs("0123456789abcdef0123456789abcdef", "blank", "fractions", 2, nil,
				sqlmock.AnyArg(), 0, 0.0, "auto_pass", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

		raw := newRaw(t)
		require.NoError(t, s.Create(context.Background(), raw))
		assert.Equal(t, int64(5), raw.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate request id", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectQuery(exact("INSERT INTO raw_questions")).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "idx_raw_questions_request_id"})

		err := s.Create(context.Background(), newRaw(t))
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid entity never reaches the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		raw := newRaw(t)
		raw.Difficulty = 9
		err := s.Create(context.Background(), raw)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRawQuestionStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("decodes content and verdict", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectQuery(exact("FROM raw_questions WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 3, domain.StatusAutoPass, []byte(passingReview)))

		raw, err := s.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, domain.QuestionTypeChoice, raw.Type)
		assert.Equal(t, "4", raw.Content.Options["B"])
		require.NotNil(t, raw.Verdict)
		assert.Equal(t, 88, raw.Verdict.OverallScore)
		require.NotNil(t, raw.ReviewTokens)
		assert.Equal(t, 120, *raw.ReviewTokens)
		assert.Nil(t, raw.CustomPrompt)
		assert.Nil(t, raw.ReviewError)
	})

	t.Run("unreviewed row has nil verdict", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectQuery(exact("FROM raw_questions WHERE request_id = $1")).
			WithArgs("0123456789abcdef0123456789abcdef").
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 3, domain.StatusAutoPass, nil))

		raw, err := s.GetByRequestID(context.Background(), "0123456789abcdef0123456789abcdef")
		require.NoError(t, err)
		assert.Nil(t, raw.Verdict)
		assert.Nil(t, raw.ReviewTokens)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectQuery(exact("FROM raw_questions WHERE request_id = $1")).
			WillReturnRows(sqlmock.NewRows(rawColumns))

		_, err := s.GetByRequestID(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrRawQuestionNotFound)
	})
}

func TestRawQuestionStore_UpdateReview(t *testing.T) {
	t.Parallel()

	update := store.ReviewUpdate{
		Verdict: domain.Verdict{Passed: false, OverallScore: 40, Issues: []domain.Issue{}},
		Tokens:  90,
		Cost:    0.001,
		Status:  domain.StatusAIReject,
	}

	t.Run("applies when unreviewed", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectExec(reviewUpdateQuery).
			WithArgs(int64(1), sqlmock.AnyArg(), 90, 0.001, "ai_reject", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateReview(context.Background(), 1, update))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale when already decided", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectExec(reviewUpdateQuery).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exact("SELECT EXISTS")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := s.UpdateReview(context.Background(), 1, update)
		assert.ErrorIs(t, err, store.ErrStaleTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectExec(reviewUpdateQuery).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exact("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := s.UpdateReview(context.Background(), 1, update)
		assert.ErrorIs(t, err, store.ErrRawQuestionNotFound)
	})

	t.Run("human status is refused", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		bad := update
		bad.Status = domain.StatusConfirmed
		err := s.UpdateReview(context.Background(), 1, bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRawQuestionStore_MarkReviewFailed(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresRawQuestionStore(db, nil)

	mock.ExpectExec(exact("UPDATE raw_questions SET review_error = $2")).
		WithArgs(int64(4), "review failed after 3 attempts", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(exact("UPDATE raw_questions SET review_error = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.MarkReviewFailed(context.Background(), 4, "review failed after 3 attempts"))
	assert.ErrorIs(t, s.MarkReviewFailed(context.Background(), 99, "x"), store.ErrRawQuestionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawQuestionStore_ListAndCount(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresRawQuestionStore(db, nil)

	filter := store.RawQuestionFilter{
		Status: domain.StatusAutoPass,
		Type:   domain.QuestionTypeChoice,
		Limit:  20,
		Offset: 40,
	}

	rows := sqlmock.NewRows(rawColumns)
	addRawRow(rows, 9, domain.StatusAutoPass, []byte(passingReview))
	addRawRow(rows, 8, domain.StatusAutoPass, nil)
	mock.ExpectQuery(exact("FROM raw_questions WHERE status = $1 AND type = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs("auto_pass", "choice", 20, 40).
		WillReturnRows(rows)
	mock.ExpectQuery(exact("SELECT COUNT(*) FROM raw_questions WHERE status = $1 AND type = $2")).
		WithArgs("auto_pass", "choice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	list, err := s.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(9), list[0].ID)
	assert.Nil(t, list[1].Verdict)

	n, err := s.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawQuestionStore_ListPendingReview(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresRawQuestionStore(db, nil)

	mock.ExpectQuery(`WHERE status = 'auto_pass' AND review IS NULL\s+ORDER BY created_at ASC, id ASC\s+LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 1, domain.StatusAutoPass, nil))

	list, err := s.ListPendingReview(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawQuestionStore_Confirm(t *testing.T) {
	t.Parallel()

	lockQuery := exact("FROM raw_questions WHERE id = $1 FOR UPDATE")
	flipQuery := exact("UPDATE raw_questions SET status = $2, human_feedback = $3")

	t.Run("promotes and flips status in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WithArgs(int64(7)).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 7, domain.StatusAutoPass, []byte(passingReview)))
		mock.ExpectQuery(exact("INSERT INTO questions")).
			WithArgs(int64(7), "choice", "arithmetic", 1, "What is 2+2?", sqlmock.AnyArg(), "B", "2+2=4", 88, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
		mock.ExpectExec(flipQuery).
			WithArgs(int64(7), "confirmed", "looks good", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		feedback := "looks good"
		qid, err := s.Confirm(context.Background(), 7, &feedback)
		require.NoError(t, err)
		assert.Equal(t, int64(42), qid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already confirmed", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 7, domain.StatusConfirmed, []byte(passingReview)))
		mock.ExpectRollback()

		_, err := s.Confirm(context.Background(), 7, nil)
		assert.ErrorIs(t, err, store.ErrAlreadyConfirmed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 7, domain.StatusHumanReject, nil))
		mock.ExpectRollback()

		_, err := s.Confirm(context.Background(), 7, nil)
		assert.ErrorIs(t, err, store.ErrAlreadyRejected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows(rawColumns))
		mock.ExpectRollback()

		_, err := s.Confirm(context.Background(), 7, nil)
		assert.ErrorIs(t, err, store.ErrRawQuestionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back the status flip", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 7, domain.StatusAIReject, nil))
		mock.ExpectQuery(exact("INSERT INTO questions")).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "idx_questions_raw_question_id"})
		mock.ExpectRollback()

		_, err := s.Confirm(context.Background(), 7, nil)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins the caller transaction", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 7, domain.StatusAutoPass, nil))
		mock.ExpectQuery(exact("INSERT INTO questions")).
			WithArgs(int64(7), "choice", "arithmetic", 1, "What is 2+2?", sqlmock.AnyArg(), "B", "2+2=4", nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec(flipQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		require.NoError(t, err)
		s := NewPostgresRawQuestionStore(db, nil).WithTx(tx)

		_, err = s.Confirm(context.Background(), 7, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRawQuestionStore_Reject(t *testing.T) {
	t.Parallel()

	lockQuery := exact("FROM raw_questions WHERE id = $1 FOR UPDATE")

	t.Run("sets human_reject with feedback", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 3, domain.StatusAIReject, []byte(passingReview)))
		mock.ExpectExec(exact("UPDATE raw_questions SET status = $2, human_feedback = $3")).
			WithArgs(int64(3), "human_reject", "answer is wrong", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.Reject(context.Background(), 3, "answer is wrong"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresRawQuestionStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(addRawRow(sqlmock.NewRows(rawColumns), 3, domain.StatusHumanReject, nil))
		mock.ExpectRollback()

		assert.ErrorIs(t, s.Reject(context.Background(), 3, "again"), store.ErrAlreadyRejected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewPostgresRawQuestionStore_NilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresRawQuestionStore(nil, nil) })
}
