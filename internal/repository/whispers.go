package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/jackc/pgx/v5"
)

// SaveWhisper inserts a whisper and returns it with the id assigned by the database.
func (r *Repository) SaveWhisper(ctx context.Context, whisper models.Whisper) (models.Whisper, error) {
	query := `
		INSERT INTO whispers (text, lat, lng, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	err := r.db.QueryRow(ctx, query, whisper.Text, whisper.Latitude, whisper.Longitude, whisper.CreatedAt).
		Scan(&whisper.ID)
	if err != nil {
		return models.Whisper{}, fmt.Errorf("failed to insert whisper: %w", err)
	}

	r.log.DebugContext(ctx, "A new whisper has been stored.", "ID", whisper.ID)

	return whisper, nil
}

// FetchRecentWhispers returns whispers created after since, newest first, at most limit rows.
func (r *Repository) FetchRecentWhispers(ctx context.Context, since time.Time, limit int) ([]models.Whisper, error) {
	query := `
		SELECT id, text, lat, lng, created_at, COALESCE(place, '')
		FROM whispers
		WHERE created_at > $1
		ORDER BY created_at DESC
		LIMIT $2;
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent whispers: %w", err)
	}

	return scanWhispers(rows)
}

// FetchWhispersInBox returns whispers created after since whose location lies inside box,
// newest first, at most limit rows. The box is a prefilter: callers apply the exact distance test.
func (r *Repository) FetchWhispersInBox(
	ctx context.Context,
	box geo.Box,
	since time.Time,
	limit int,
) ([]models.Whisper, error) {
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

	rows, err := r.db.Query(ctx, query, since, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query whispers in box: %w", err)
	}

	return scanWhispers(rows)
}

// DeleteWhispersBefore removes every whisper created before cutoff and returns the number of deleted rows.
func (r *Repository) DeleteWhispersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM whispers
		WHERE created_at < $1;
	`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired whispers: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanWhispers(rows pgx.Rows) ([]models.Whisper, error) {
	defer rows.Close()

	whispers := make([]models.Whisper, 0)
	for rows.Next() {
		var w models.Whisper
		if err := rows.Scan(&w.ID, &w.Text, &w.Latitude, &w.Longitude, &w.CreatedAt, &w.Place); err != nil {
			return nil, fmt.Errorf("failed to scan whisper: %w", err)
		}
		whispers = append(whispers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return whispers, nil
}
