package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aiden123456789/Whispers/internal/geocoding"
	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/internal/repository"
)

// labelBatchSize is the number of unlabeled whispers fetched per poll.
const labelBatchSize = 100

// PlaceLabeler gives stored whispers a human readable place name by reverse geocoding
// their coordinates on a pool of workers.
type PlaceLabeler struct {
	log          *slog.Logger          // Logger for logging service activities
	repo         repository.PlaceStore // Store holding unlabeled whispers
	provider     geocoding.Provider    // Reverse geocoding provider
	providerName string                // Name of the provider for metrics labeling
	metrics      *metrics.Metrics      // Metrics for tracking service performance
	numWorkers   int                   // Number of concurrent workers for processing
	pollInterval time.Duration         // Interval between polls for unlabeled whispers
}

// NewPlaceLabeler creates a new PlaceLabeler. numWorkers below one is treated as one.
func NewPlaceLabeler(
	log *slog.Logger,
	repo repository.PlaceStore,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
) *PlaceLabeler {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &PlaceLabeler{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   numWorkers,
		pollInterval: pollInterval,
	}
}

// Run starts the labeler, which periodically polls for whispers without a place.
// It listens for a cancellation signal from the context to gracefully stop.
func (pl *PlaceLabeler) Run(ctx context.Context) {
	ticker := time.NewTicker(pl.pollInterval)
	defer ticker.Stop()

	pl.log.InfoContext(ctx, "Place labeler started...", "provider", pl.providerName)

	for {
		select {
		case <-ctx.Done():
			pl.log.InfoContext(ctx, "Place labeler stopped.")
			return
		case <-ticker.C:
			pl.log.DebugContext(ctx, "Polling for whispers to label...")
			pl.processTask(ctx)
		}
	}
}

// processTask fetches a batch of unlabeled whispers, fans them out to the worker pool
// and waits for all workers to finish.
func (pl *PlaceLabeler) processTask(ctx context.Context) {
	tasks, err := pl.repo.FetchWhispersForLabeling(ctx, labelBatchSize)
	if err != nil {
		pl.log.ErrorContext(ctx, "Failed to fetch whispers for labeling", "error", err)
		return
	}
	if len(tasks) == 0 {
		pl.log.DebugContext(ctx, "No whispers to label.")
		return
	}

	pl.log.InfoContext(
		ctx,
		"Found whispers to label. Starting worker pool.",
		"jobs", len(tasks),
		"num_workers", pl.numWorkers,
	)

	jobs := make(chan models.Task, len(tasks))
	var wgr sync.WaitGroup

	for i := 1; i <= pl.numWorkers; i++ {
		wgr.Add(1)
		go pl.worker(ctx, i, &wgr, jobs)
	}

	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)

	wgr.Wait()
	pl.log.InfoContext(ctx, "Labeling batch finished")
}

// worker labels whispers from the jobs channel. A provider failure bumps the attempt
// counter of the whisper so it is retried on a later poll, up to the store's limit.
func (pl *PlaceLabeler) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Task) {
	defer wg.Done()
	for task := range jobs {
		pl.metrics.ActiveWorkers.Inc()
		pl.label(ctx, idx, task)
		pl.metrics.ActiveWorkers.Dec()
	}
}

func (pl *PlaceLabeler) label(ctx context.Context, idx int, task models.Task) {
	pl.log.DebugContext(ctx, "Processing task", "worker", idx, "whisper", task.ID)

	startTime := time.Now()
	place, err := pl.provider.ReverseGeocode(ctx, task.Coords)
	pl.metrics.RequestSeconds.WithLabelValues(pl.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		pl.log.ErrorContext(ctx, "Failed to reverse geocode", "worker", idx, "whisper", task.ID, "error", err)
		pl.metrics.TaskProcessed.WithLabelValues("failure").Inc()
		pl.metrics.APIErrors.Inc()

		if err = pl.repo.IncrementLabelFailure(ctx, task.ID, err.Error()); err != nil {
			pl.log.ErrorContext(
				ctx,
				"Could not update failure count for whisper",
				"worker", idx,
				"whisper", task.ID,
				"error", err,
			)
		}
		return
	}

	pl.metrics.TaskProcessed.WithLabelValues("success").Inc()

	if err = pl.repo.UpdateWhisperPlace(ctx, task.ID, place); err != nil {
		pl.log.ErrorContext(ctx, "Failed to update place for whisper", "worker", idx, "whisper", task.ID, "error", err)
		return
	}

	pl.log.DebugContext(ctx, "Worker successfully labeled the whisper", "worker", idx, "whisper", task.ID, "place", place)
}
