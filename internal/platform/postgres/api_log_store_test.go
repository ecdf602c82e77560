package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILogStore_Record(t *testing.T) {
	t.Parallel()

	t.Run("failed attempt stores error and null response", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresAPILogStore(db, nil)

		mock.ExpectQuery(exact("INSERT INTO api_logs")).
			WithArgs("req-1", domain.ProviderKimi, "/chat/completions",
				[]byte(`{"max_tokens":1024}`), nil,
				0, 0, int64(1500), 502, "upstream 502", 0.0, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

		entry := &domain.APICallLog{
			RequestID:      "req-1",
			Provider:       domain.ProviderKimi,
			Endpoint:       "/chat/completions",
			RequestData:    []byte(`{"max_tokens":1024}`),
			ResponseTimeMS: 1500,
			StatusCode:     502,
			ErrorMessage:   "upstream 502",
		}
		require.NoError(t, s.Record(context.Background(), entry))
		assert.Equal(t, int64(11), entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful attempt stores null error", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresAPILogStore(db, nil)

		mock.ExpectQuery(exact("INSERT INTO api_logs")).
			WithArgs("req-2", domain.ProviderDeepSeek, "/chat/completions",
				sqlmock.AnyArg(), sqlmock.AnyArg(),
				100, 200, int64(800), 200, nil, 0.005, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

		entry := &domain.APICallLog{
			RequestID:      "req-2",
			Provider:       domain.ProviderDeepSeek,
			Endpoint:       "/chat/completions",
			RequestData:    []byte(`{}`),
			ResponseData:   []byte(`{"question":"q"}`),
			RequestTokens:  100,
			ResponseTokens: 200,
			ResponseTimeMS: 800,
			StatusCode:     200,
			Cost:           0.005,
		}
		require.NoError(t, s.Record(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is returned", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresAPILogStore(db, nil)

		mock.ExpectQuery(exact("INSERT INTO api_logs")).WillReturnError(errors.New("connection refused"))

		err := s.Record(context.Background(), &domain.APICallLog{RequestID: "req-3"})
		assert.EqualError(t, err, "connection refused")
	})
}
