package repository_test

import (
	"log/slog"
	"testing"

	"github.com/aiden123456789/Whispers/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		err = repo.InitSchema(ctx)

		require.ErrorContains(t, err, "failed to begin schema transaction")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - statement fails and rolls back", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS whispers").WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err = repo.InitSchema(ctx)

		require.ErrorContains(t, err, "failed to execute schema statement #1")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - all statements committed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS whispers").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_whispers_created_at").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_whispers_lat_lng").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS push_subscriptions").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectCommit()

		require.NoError(t, repo.InitSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
