package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it in tests.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Repository is the Postgres implementation of Interface.
type Repository struct {
	db  Database
	log *slog.Logger
}

// WhisperStore covers the four storage operations every backend provides:
// insert, range query, bulk delete by age and read of recent rows.
type WhisperStore interface {
	SaveWhisper(ctx context.Context, whisper models.Whisper) (models.Whisper, error)
	FetchRecentWhispers(ctx context.Context, since time.Time, limit int) ([]models.Whisper, error)
	FetchWhispersInBox(ctx context.Context, box geo.Box, since time.Time, limit int) ([]models.Whisper, error)
	DeleteWhispersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PlaceStore is used by the place labeling worker.
type PlaceStore interface {
	FetchWhispersForLabeling(ctx context.Context, limit int) ([]models.Task, error)
	UpdateWhisperPlace(ctx context.Context, whisperID int64, place string) error
	IncrementLabelFailure(ctx context.Context, whisperID int64, errMsg string) error
}

// SubscriptionStore keeps browser push subscriptions.
type SubscriptionStore interface {
	SaveSubscription(ctx context.Context, sub models.Subscription) error
	FetchSubscriptions(ctx context.Context) ([]models.Subscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Interface is implemented by every storage backend.
type Interface interface {
	WhisperStore
	PlaceStore
	SubscriptionStore
	Ping(ctx context.Context) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
