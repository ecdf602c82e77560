//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/postgres"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRaw(t *testing.T, s store.RawQuestionStore, qType domain.QuestionType) *domain.RawQuestion {
	t.Helper()

	content := domain.QuestionContent{Question: "Solve x+1=3", Answer: "2", Solution: "x=3-1=2"}
	if qType == domain.QuestionTypeChoice {
		content.Options = domain.Options{"A": "1", "B": "2", "C": "3", "D": "4"}
		content.Answer = "B"
	}
	raw, err := domain.NewRawQuestion(strings.ReplaceAll(uuid.NewString(), "-", ""), qType, "linear equations", 2, "", content)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), raw))
	return raw
}

func TestRawQuestionLifecycle(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		raws := postgres.NewPostgresRawQuestionStore(db, nil).WithTx(tx)

		raw := createRaw(t, raws, domain.QuestionTypeChoice)
		assert.NotZero(t, raw.ID)

		got, err := raws.GetByRequestID(ctx, raw.RequestID)
		require.NoError(t, err)
		assert.Equal(t, raw.Content, got.Content)
		assert.Nil(t, got.Verdict)

		_, err = raws.GetByID(ctx, raw.ID+1_000_000)
		assert.ErrorIs(t, err, store.ErrNotFound)

		// The unique violation aborts the transaction, so isolate it.
		_, err = tx.ExecContext(ctx, "SAVEPOINT duplicate_create")
		require.NoError(t, err)
		dup := *raw
		assert.ErrorIs(t, raws.Create(ctx, &dup), store.ErrDuplicate)
		_, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT duplicate_create")
		require.NoError(t, err)

		verdict := domain.Verdict{Passed: true, OverallScore: 84, Issues: []domain.Issue{}}
		require.NoError(t, raws.UpdateReview(ctx, raw.ID, store.ReviewUpdate{
			Verdict: verdict, Tokens: 50, Cost: 0.001, Status: domain.StatusAutoPass,
		}))

		// Write-once verdict.
		err = raws.UpdateReview(ctx, raw.ID, store.ReviewUpdate{Verdict: verdict, Status: domain.StatusAIReject})
		assert.ErrorIs(t, err, store.ErrStaleTransition)

		feedback := "good"
		qid, err := raws.Confirm(ctx, raw.ID, &feedback)
		require.NoError(t, err)

		_, err = raws.Confirm(ctx, raw.ID, nil)
		assert.ErrorIs(t, err, store.ErrAlreadyConfirmed)
		assert.ErrorIs(t, raws.Reject(ctx, raw.ID, "too late"), store.ErrAlreadyConfirmed)

		q, err := postgres.NewPostgresQuestionStore(tx, nil).GetByID(ctx, qid)
		require.NoError(t, err)
		assert.Equal(t, raw.ID, q.RawQuestionID)
		require.NotNil(t, q.QualityScore)
		assert.Equal(t, 84, *q.QualityScore)
		assert.Equal(t, "2", q.Options["B"])

		confirmed, err := raws.GetByID(ctx, raw.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
		require.NotNil(t, confirmed.HumanFeedback)
		assert.Equal(t, "good", *confirmed.HumanFeedback)
	})
}

func TestRejectAndReviewRace(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		raws := postgres.NewPostgresRawQuestionStore(db, nil).WithTx(tx)
		raw := createRaw(t, raws, domain.QuestionTypeBlank)

		require.NoError(t, raws.Reject(ctx, raw.ID, "ambiguous wording"))

		// A review finishing after the human decision must not overwrite it.
		err := raws.UpdateReview(ctx, raw.ID, store.ReviewUpdate{
			Verdict: domain.Verdict{Passed: true, OverallScore: 90},
			Status:  domain.StatusAutoPass,
		})
		assert.ErrorIs(t, err, store.ErrStaleTransition)

		got, err := raws.GetByID(ctx, raw.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusHumanReject, got.Status)
		assert.Nil(t, got.Verdict)
	})
}

func TestListingAndStats(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		raws := postgres.NewPostgresRawQuestionStore(db, nil).WithTx(tx)
		for range 3 {
			createRaw(t, raws, domain.QuestionTypeSolution)
		}

		filter := store.RawQuestionFilter{Type: domain.QuestionTypeSolution, KnowledgePoint: "linear equations", Limit: 2}
		list, err := raws.List(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.True(t, !list[0].CreatedAt.Before(list[1].CreatedAt))

		n, err := raws.Count(ctx, filter)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)

		pending, err := raws.ListPendingReview(ctx, 100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(pending), 3)

		logs := postgres.NewPostgresAPILogStore(tx, nil)
		require.NoError(t, logs.Record(ctx, &domain.APICallLog{
			RequestID: "stats-req", Provider: "integration-test", Endpoint: "/chat/completions",
			RequestTokens: 10, ResponseTokens: 20, ResponseTimeMS: 100, StatusCode: 200, Cost: 0.0005,
		}))
		require.NoError(t, logs.Record(ctx, &domain.APICallLog{
			RequestID: "stats-req", Provider: "integration-test", Endpoint: "/chat/completions",
			ResponseTimeMS: 300, StatusCode: 500, ErrorMessage: "parse error",
		}))

		stats := postgres.NewPostgresStatsStore(tx, nil)
		counts, err := stats.StatusCounts(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, counts[domain.StatusAutoPass], 3)

		usage, err := stats.ProviderUsage(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		var found bool
		for _, u := range usage {
			if u.Provider != "integration-test" {
				continue
			}
			found = true
			assert.Equal(t, 2, u.TotalCalls)
			assert.Equal(t, 1, u.SuccessfulCalls)
			assert.Equal(t, 1, u.FailedCalls)
			assert.InDelta(t, 200, u.AvgResponseTimeMS, 1e-9)
		}
		assert.True(t, found)
	})
}
