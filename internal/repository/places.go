package repository

import (
	"context"
	"fmt"

	"github.com/aiden123456789/Whispers/internal/models"
)

// maxLabelAttempts is the number of failed reverse geocoding attempts after which a whisper is skipped.
const maxLabelAttempts = 5

// FetchWhispersForLabeling retrieves whispers that still need a place label.
// It returns whispers that have a NULL place and fewer than 5 labeling attempts,
// ordered by creation date (oldest first) and limited to the specified count.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - limit: The maximum number of tasks to retrieve.
//
// Returns:
// - A slice of models.Task with the whisper id and its coordinates.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchWhispersForLabeling(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	query := `
		SELECT id, lat, lng
		FROM whispers
		WHERE
			place IS NULL
			AND label_attempts < $1
		ORDER BY created_at ASC
		LIMIT $2;
	`

	rows, err := r.db.Query(ctx, query, maxLabelAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlabeled whispers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task models.Task
		if errScan := rows.Scan(&task.ID, &task.Coords.Latitude, &task.Coords.Longitude); errScan != nil {
			return nil, fmt.Errorf("failed to scan unlabeled whisper: %w", errScan)
		}
		r.log.DebugContext(ctx, "A whisper without place label has been received.", "ID", task.ID)
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return tasks, nil
}

// UpdateWhisperPlace stores the place label of a whisper and clears the last labeling error.
func (r *Repository) UpdateWhisperPlace(ctx context.Context, whisperID int64, place string) error {
	query := `
		UPDATE whispers
		SET
			place = $1,
			label_error = NULL
		WHERE
			id = $2;
	`

	_, err := r.db.Exec(ctx, query, place, whisperID)
	if err != nil {
		return fmt.Errorf("failed to update whisper place: %w", err)
	}

	return nil
}

// IncrementLabelFailure increments the labeling attempt count of a whisper
// and records the error message of the failed attempt.
func (r *Repository) IncrementLabelFailure(ctx context.Context, whisperID int64, errMsg string) error {
	query := `
		UPDATE whispers
		SET
			label_attempts = label_attempts + 1,
			label_error = $1
		WHERE id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, whisperID)
	if err != nil {
		return fmt.Errorf("failed to update labeling error and number of attempts: %w", err)
	}

	return nil
}
