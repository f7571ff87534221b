package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var whisperColumns = []string{"id", "text", "lat", "lng", "created_at", "place"}

func TestSaveWhisper(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	query := `
		INSERT INTO whispers (text, lat, lng, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	whisper := models.Whisper{
		Text:      "hello there",
		Latitude:  33.9519,
		Longitude: -83.3576,
		CreatedAt: time.Unix(1_700_000_000, 0),
	}

	t.Run("error - insert whisper", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(whisper.Text, whisper.Latitude, whisper.Longitude, whisper.CreatedAt).
			WillReturnError(assert.AnError)

		saved, err := repo.SaveWhisper(ctx, whisper)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert whisper")
		require.ErrorIs(t, err, assert.AnError)
		assert.Zero(t, saved.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - insert whisper", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(whisper.Text, whisper.Latitude, whisper.Longitude, whisper.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		saved, err := repo.SaveWhisper(ctx, whisper)

		require.NoError(t, err)
		assert.Equal(t, int64(42), saved.ID)
		assert.Equal(t, whisper.Text, saved.Text)
		assert.Equal(t, whisper.CreatedAt, saved.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchRecentWhispers(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	since := time.Unix(1_690_000_000, 0)
	limit := 1000
	query := `
		SELECT id, text, lat, lng, created_at, COALESCE(place, '')
		FROM whispers
		WHERE created_at > $1
		ORDER BY created_at DESC
		LIMIT $2;
	`

	t.Run("error - query recent whispers", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(since, limit).WillReturnError(assert.AnError)

		whispers, err := repo.FetchRecentWhispers(ctx, since, limit)

		require.Nil(t, whispers)
		require.ErrorContains(t, err, "failed to query recent whispers")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan whisper", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(since, limit).
			WillReturnRows(pgxmock.NewRows(whisperColumns).AddRow("invalid_id", "hi", 1.0, 2.0, since, ""))

		whispers, err := repo.FetchRecentWhispers(ctx, since, limit)

		require.Nil(t, whispers)
		require.ErrorContains(t, err, "failed to scan whisper")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(since, limit).
			WillReturnRows(
				pgxmock.NewRows(whisperColumns).AddRow(int64(1), "hi", 1.0, 2.0, since, "").
					RowError(1, assert.AnError),
			)

		whispers, err := repo.FetchRecentWhispers(ctx, since, limit)

		require.Nil(t, whispers)
		require.ErrorContains(t, err, "failed to read row")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch recent whispers", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		created := time.Unix(1_700_000_000, 0)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(since, limit).
			WillReturnRows(pgxmock.NewRows(whisperColumns).
				AddRow(int64(2), "second", 33.95, -83.35, created, "Athens").
				AddRow(int64(1), "first", 33.96, -83.36, created.Add(-time.Hour), ""))

		whispers, err := repo.FetchRecentWhispers(ctx, since, limit)

		require.NoError(t, err)
		require.Len(t, whispers, 2)
		assert.Equal(t, int64(2), whispers[0].ID)
		assert.Equal(t, "second", whispers[0].Text)
		assert.Equal(t, "Athens", whispers[0].Place)
		assert.InEpsilon(t, 33.95, whispers[0].Latitude, 1e-9)
		assert.Equal(t, created, whispers[0].CreatedAt)
		assert.Empty(t, whispers[1].Place)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - no rows gives empty slice", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(since, limit).
			WillReturnRows(pgxmock.NewRows(whisperColumns))

		whispers, err := repo.FetchRecentWhispers(ctx, since, limit)

		require.NoError(t, err)
		require.NotNil(t, whispers)
		assert.Empty(t, whispers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchWhispersInBox(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	since := time.Unix(1_690_000_000, 0)
	box := geo.Box{MinLat: 33.9, MaxLat: 34.0, MinLng: -83.4, MaxLng: -83.3}
	limit := 1000
	query := `
		SELECT id, text, lat, lng, created_at, COALESCE(place, '')
		FROM whispers
		WHERE
			created_at > $1
			AND lat BETWEEN $2 AND $3
			AND lng BETWEEN $4 AND $5
		ORDER BY created_at DESC
		LIMIT $6;
	`

	t.Run("error - query whispers in box", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(since, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit).
			WillReturnError(assert.AnError)

		whispers, err := repo.FetchWhispersInBox(ctx, box, since, limit)

		require.Nil(t, whispers)
		require.ErrorContains(t, err, "failed to query whispers in box")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch whispers in box", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		created := time.Unix(1_700_000_000, 0)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(since, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit).
			WillReturnRows(pgxmock.NewRows(whisperColumns).AddRow(int64(7), "inside", 33.95, -83.35, created, ""))

		whispers, err := repo.FetchWhispersInBox(ctx, box, since, limit)

		require.NoError(t, err)
		require.Len(t, whispers, 1)
		assert.Equal(t, int64(7), whispers[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteWhispersBefore(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	cutoff := time.Unix(1_690_000_000, 0)
	query := `
		DELETE FROM whispers
		WHERE created_at < $1;
	`

	t.Run("error - delete whispers", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(cutoff).WillReturnError(assert.AnError)

		deleted, err := repo.DeleteWhispersBefore(ctx, cutoff)

		require.ErrorContains(t, err, "failed to delete expired whispers")
		require.ErrorIs(t, err, assert.AnError)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - delete whispers", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(cutoff).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		deleted, err := repo.DeleteWhispersBefore(ctx, cutoff)

		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
