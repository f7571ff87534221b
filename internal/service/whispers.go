package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aiden123456789/Whispers/internal/clustering"
	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/internal/repository"
)

const (
	// MaxTextLength is the longest whisper, in characters.
	MaxTextLength = 50
	// DefaultRetention is how long whispers are listed and kept.
	DefaultRetention = 90 * 24 * time.Hour
	// RecentLimit caps the unfiltered listing.
	RecentLimit = 1000
	// DefaultNearbyRadius is the Nearby radius when none is given.
	DefaultNearbyRadius = 300.0
	// MaxNearbyRadius is the largest radius a caller may ask for.
	MaxNearbyRadius = 5000.0

	candidateLimit = 1000
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrTextTooLong        = errors.New("text too long")
	ErrInvalidCoordinates = geo.ErrInvalidCoordinates
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrInvalidPrecision   = errors.New("invalid precision")
)

// Publisher receives every stored whisper, e.g. the live feed hub.
type Publisher interface {
	Publish(whisper models.Whisper)
}

// Notifier delivers push notifications about a new whisper.
type Notifier interface {
	NotifyNearby(ctx context.Context, whisper models.Whisper)
}

// NearbyOptions tune a Nearby query. Zero values select the defaults.
type NearbyOptions struct {
	Radius    float64 // Radius in meters, DefaultNearbyRadius when zero.
	Precision int     // Decimals to round coordinates to before comparing, 0 disables rounding.
}

// ClusterOptions tune a Clusters query. Zero values select the defaults.
type ClusterOptions struct {
	Radius      float64 // Search radius in meters, clustering.NearbyRadius when zero.
	GroupRadius float64 // Marker grouping radius, the service default when zero.
}

// WhisperService is the application core: posting, listing and proximity queries.
type WhisperService struct {
	log         *slog.Logger
	repo        repository.WhisperStore
	publisher   Publisher
	notifier    Notifier
	metrics     *metrics.Metrics
	retention   time.Duration
	groupRadius float64
	now         func() time.Time
	pending     sync.WaitGroup
}

// NewWhisperService creates the service. publisher and notifier may be nil.
// A non-positive retention or groupRadius selects DefaultRetention and
// clustering.DefaultGroupRadius.
func NewWhisperService(
	log *slog.Logger,
	repo repository.WhisperStore,
	publisher Publisher,
	notifier Notifier,
	metrics *metrics.Metrics,
	retention time.Duration,
	groupRadius float64,
) *WhisperService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if groupRadius <= 0 {
		groupRadius = clustering.DefaultGroupRadius
	}

	return &WhisperService{
		log:         log,
		repo:        repo,
		publisher:   publisher,
		notifier:    notifier,
		metrics:     metrics,
		retention:   retention,
		groupRadius: groupRadius,
		now:         time.Now,
	}
}

// Post validates and stores a whisper, then hands it to the live feed and to push
// delivery. Push delivery runs in the background and never fails the post.
func (s *WhisperService) Post(ctx context.Context, text string, lat, lng float64) (models.Whisper, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Whisper{}, ErrMissingFields
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return models.Whisper{}, fmt.Errorf("%w: at most %d characters", ErrTextTooLong, MaxTextLength)
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lng}
	if err := geo.Validate(coords); err != nil {
		return models.Whisper{}, err
	}

	stored, err := s.repo.SaveWhisper(ctx, models.Whisper{
		Text:      text,
		Latitude:  lat,
		Longitude: lng,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Whisper{}, fmt.Errorf("failed to save whisper: %w", err)
	}

	s.metrics.WhispersPosted.Inc()
	s.log.InfoContext(ctx, "Whisper stored", "id", stored.ID)

	if s.publisher != nil {
		s.publisher.Publish(stored)
	}

	if s.notifier != nil {
		pushCtx := context.WithoutCancel(ctx)
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.notifier.NotifyNearby(pushCtx, stored)
		}()
	}

	return stored, nil
}

// Surroundings is the map view around a user.
type Surroundings struct {
	Near []models.Whisper      // Near are the whispers within clustering.NearbyRadius, newest first.
	Far  []clustering.Cluster // Far are the remaining recent whispers grouped into markers.
}

// Around splits the recent whispers into the group around (lat, lng) and the marker
// clusters elsewhere. The whisper with ID mine is always near; pass 0 when the
// caller has none.
func (s *WhisperService) Around(ctx context.Context, lat, lng float64, mine int64) (Surroundings, error) {
	user := models.Coordinates{Latitude: lat, Longitude: lng}
	if err := geo.Validate(user); err != nil {
		return Surroundings{}, err
	}

	whispers, err := s.Recent(ctx)
	if err != nil {
		return Surroundings{}, err
	}

	near, far := clustering.Split(whispers, user, clustering.NearbyRadius, mine)

	return Surroundings{Near: near, Far: clustering.Group(far, s.groupRadius)}, nil
}

// Wait blocks until background push deliveries started by Post have finished.
func (s *WhisperService) Wait() {
	s.pending.Wait()
}

// Recent returns whispers inside the retention window, newest first.
func (s *WhisperService) Recent(ctx context.Context) ([]models.Whisper, error) {
	whispers, err := s.repo.FetchRecentWhispers(ctx, s.now().Add(-s.retention), RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent whispers: %w", err)
	}

	return whispers, nil
}

// Nearby returns whispers within opts.Radius meters of (lat, lng), newest first.
func (s *WhisperService) Nearby(ctx context.Context, lat, lng float64, opts NearbyOptions) ([]models.Whisper, error) {
	if opts.Radius == 0 {
		opts.Radius = DefaultNearbyRadius
	}

	return s.nearby(ctx, lat, lng, opts)
}

// Clusters groups the whispers around (lat, lng) into map markers.
func (s *WhisperService) Clusters(
	ctx context.Context,
	lat, lng float64,
	opts ClusterOptions,
) ([]clustering.Cluster, error) {
	if opts.Radius == 0 {
		opts.Radius = clustering.NearbyRadius
	}
	if !(opts.GroupRadius >= 0) {
		return nil, fmt.Errorf("%w: group radius must be positive", ErrInvalidRadius)
	}
	if opts.GroupRadius == 0 {
		opts.GroupRadius = s.groupRadius
	}

	whispers, err := s.nearby(ctx, lat, lng, NearbyOptions{Radius: opts.Radius})
	if err != nil {
		return nil, err
	}

	return clustering.Group(whispers, opts.GroupRadius), nil
}

func (s *WhisperService) nearby(ctx context.Context, lat, lng float64, opts NearbyOptions) ([]models.Whisper, error) {
	center := models.Coordinates{Latitude: lat, Longitude: lng}
	if err := geo.Validate(center); err != nil {
		return nil, err
	}
	if !(opts.Radius > 0 && opts.Radius <= MaxNearbyRadius) {
		return nil, fmt.Errorf("%w: must be in (0, %g] meters", ErrInvalidRadius, MaxNearbyRadius)
	}
	if opts.Precision < 0 || opts.Precision > 2 {
		return nil, fmt.Errorf("%w: must be 0, 1 or 2 decimals", ErrInvalidPrecision)
	}

	s.metrics.NearbyQueries.Inc()

	box := geo.CoveringBox(center, opts.Radius)
	if opts.Precision > 0 {
		// Both the query point and each candidate can move by one cell when rounded.
		box = box.Expand(2 * geo.RoundingCell(opts.Precision))
		center = geo.Round(center, opts.Precision)
	}

	candidates, err := s.repo.FetchWhispersInBox(ctx, box, s.now().Add(-s.retention), candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch whispers in box: %w", err)
	}

	result := make([]models.Whisper, 0, len(candidates))
	for _, w := range candidates {
		if geo.Within(center, geo.Round(w.Coordinates(), opts.Precision), opts.Radius) {
			result = append(result, w)
		}
	}

	s.log.DebugContext(ctx, "Nearby query", "candidates", len(candidates), "matched", len(result))

	return result, nil
}
