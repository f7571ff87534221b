package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/repository"
)

// Sweeper periodically deletes whispers older than the retention window.
type Sweeper struct {
	log       *slog.Logger
	repo      repository.WhisperStore
	metrics   *metrics.Metrics
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewSweeper creates a retention sweeper. A non-positive retention selects DefaultRetention.
func NewSweeper(
	log *slog.Logger,
	repo repository.WhisperStore,
	metrics *metrics.Metrics,
	retention time.Duration,
	interval time.Duration,
) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Sweeper{
		log:       log,
		repo:      repo,
		metrics:   metrics,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Retention sweeper started...", "retention", s.retention, "interval", s.interval)
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Retention sweeper stopped.")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)

	deleted, err := s.repo.DeleteWhispersBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete expired whispers", "error", err)
		return
	}

	s.metrics.SweptWhispers.Add(float64(deleted))
	if deleted > 0 {
		s.log.InfoContext(ctx, "Expired whispers deleted", "count", deleted, "cutoff", cutoff)
	}
}
