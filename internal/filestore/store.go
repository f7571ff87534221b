// Package filestore is a flat JSON file storage backend for local runs without a database.
// The whole data set lives in memory and is rewritten atomically after every change.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
)

// maxLabelAttempts mirrors the Postgres backend.
const maxLabelAttempts = 5

type whisperRecord struct {
	ID            int64     `json:"id"`
	Text          string    `json:"text"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	CreatedAt     time.Time `json:"createdAt"`
	Place         *string   `json:"place,omitempty"`
	LabelAttempts int       `json:"labelAttempts,omitempty"`
	LabelError    string    `json:"labelError,omitempty"`
}

type subscriptionRecord struct {
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type fileData struct {
	NextID        int64                `json:"nextId"`
	Whispers      []whisperRecord      `json:"whispers"`
	Subscriptions []subscriptionRecord `json:"subscriptions"`
}

// Store keeps whispers and subscriptions in a single JSON file.
type Store struct {
	path string
	log  *slog.Logger

	mu   sync.Mutex
	data fileData
}

// Open loads the store from path. A missing file starts an empty store.
func Open(path string, log *slog.Logger) (*Store, error) {
	store := &Store{path: path, log: log, data: fileData{NextID: 1}}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("Data file does not exist yet, starting empty", "path", path)
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read data file %q: %w", path, err)
	}

	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &store.data); err != nil {
			return nil, fmt.Errorf("failed to decode data file %q: %w", path, err)
		}
	}
	if store.data.NextID < 1 {
		store.data.NextID = 1
	}
	for _, w := range store.data.Whispers {
		if w.ID >= store.data.NextID {
			store.data.NextID = w.ID + 1
		}
	}

	return store, nil
}

// Ping reports whether the data directory is still reachable.
func (s *Store) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to stat data directory: %w", err)
	}

	return nil
}

// SaveWhisper appends a whisper and assigns the next id.
func (s *Store) SaveWhisper(ctx context.Context, whisper models.Whisper) (models.Whisper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	whisper.ID = s.data.NextID
	s.data.NextID++
	s.data.Whispers = append(s.data.Whispers, whisperRecord{
		ID:        whisper.ID,
		Text:      whisper.Text,
		Lat:       whisper.Latitude,
		Lng:       whisper.Longitude,
		CreatedAt: whisper.CreatedAt,
	})

	if err := s.persist(); err != nil {
		s.data.Whispers = s.data.Whispers[:len(s.data.Whispers)-1]
		s.data.NextID--
		return models.Whisper{}, fmt.Errorf("failed to insert whisper: %w", err)
	}

	s.log.DebugContext(ctx, "A new whisper has been stored.", "ID", whisper.ID)

	return whisper, nil
}

// FetchRecentWhispers returns whispers created after since, newest first, at most limit rows.
func (s *Store) FetchRecentWhispers(_ context.Context, since time.Time, limit int) ([]models.Whisper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selectWhispers(limit, func(w whisperRecord) bool {
		return w.CreatedAt.After(since)
	}), nil
}

// FetchWhispersInBox returns whispers created after since inside box, newest first, at most limit rows.
func (s *Store) FetchWhispersInBox(
	_ context.Context,
	box geo.Box,
	since time.Time,
	limit int,
) ([]models.Whisper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selectWhispers(limit, func(w whisperRecord) bool {
		return w.CreatedAt.After(since) && box.Contains(models.Coordinates{Latitude: w.Lat, Longitude: w.Lng})
	}), nil
}

// DeleteWhispersBefore drops whispers created before cutoff.
func (s *Store) DeleteWhispersBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]whisperRecord, 0, len(s.data.Whispers))
	for _, w := range s.data.Whispers {
		if !w.CreatedAt.Before(cutoff) {
			kept = append(kept, w)
		}
	}

	deleted := int64(len(s.data.Whispers) - len(kept))
	if deleted == 0 {
		return 0, nil
	}

	previous := s.data.Whispers
	s.data.Whispers = kept
	if err := s.persist(); err != nil {
		s.data.Whispers = previous
		return 0, fmt.Errorf("failed to delete expired whispers: %w", err)
	}

	return deleted, nil
}

// FetchWhispersForLabeling returns the oldest whispers without a place label.
func (s *Store) FetchWhispersForLabeling(_ context.Context, limit int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]whisperRecord, 0)
	for _, w := range s.data.Whispers {
		if w.Place == nil && w.LabelAttempts < maxLabelAttempts {
			candidates = append(candidates, w)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	var tasks []models.Task
	for i, w := range candidates {
		if i == limit {
			break
		}
		tasks = append(tasks, models.Task{
			ID:     w.ID,
			Coords: models.Coordinates{Latitude: w.Lat, Longitude: w.Lng},
		})
	}

	return tasks, nil
}

// UpdateWhisperPlace stores the place label of a whisper.
func (s *Store) UpdateWhisperPlace(_ context.Context, whisperID int64, place string) error {
	return s.updateWhisper(whisperID, func(w *whisperRecord) {
		w.Place = &place
		w.LabelError = ""
	})
}

// IncrementLabelFailure records a failed labeling attempt.
func (s *Store) IncrementLabelFailure(_ context.Context, whisperID int64, errMsg string) error {
	return s.updateWhisper(whisperID, func(w *whisperRecord) {
		w.LabelAttempts++
		w.LabelError = errMsg
	})
}

// SaveSubscription stores a subscription, replacing an existing one with the same endpoint.
func (s *Store) SaveSubscription(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := subscriptionRecord{
		Endpoint:  sub.Endpoint,
		P256dh:    sub.P256dh,
		Auth:      sub.Auth,
		CreatedAt: sub.CreatedAt,
	}
	if sub.Location != nil {
		lat, lng := sub.Location.Latitude, sub.Location.Longitude
		record.Lat, record.Lng = &lat, &lng
	}

	previous := append([]subscriptionRecord(nil), s.data.Subscriptions...)
	replaced := false
	for i := range s.data.Subscriptions {
		if s.data.Subscriptions[i].Endpoint == sub.Endpoint {
			record.CreatedAt = s.data.Subscriptions[i].CreatedAt
			s.data.Subscriptions[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}
		s.data.Subscriptions = append(s.data.Subscriptions, record)
	}

	if err := s.persist(); err != nil {
		s.data.Subscriptions = previous
		return fmt.Errorf("failed to save push subscription: %w", err)
	}

	return nil
}

// FetchSubscriptions returns all subscriptions, oldest first.
func (s *Store) FetchSubscriptions(_ context.Context) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]models.Subscription, 0, len(s.data.Subscriptions))
	for _, r := range s.data.Subscriptions {
		sub := models.Subscription{Endpoint: r.Endpoint, P256dh: r.P256dh, Auth: r.Auth, CreatedAt: r.CreatedAt}
		if r.Lat != nil && r.Lng != nil {
			sub.Location = &models.Coordinates{Latitude: *r.Lat, Longitude: *r.Lng}
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

// DeleteSubscription removes the subscription with the given endpoint.
func (s *Store) DeleteSubscription(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.data.Subscriptions {
		if r.Endpoint != endpoint {
			continue
		}
		previous := append([]subscriptionRecord(nil), s.data.Subscriptions...)
		s.data.Subscriptions = append(s.data.Subscriptions[:i], s.data.Subscriptions[i+1:]...)
		if err := s.persist(); err != nil {
			s.data.Subscriptions = previous
			return fmt.Errorf("failed to delete push subscription: %w", err)
		}
		return nil
	}

	return nil
}

func (s *Store) updateWhisper(whisperID int64, apply func(w *whisperRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Whispers {
		if s.data.Whispers[i].ID != whisperID {
			continue
		}
		previous := s.data.Whispers[i]
		apply(&s.data.Whispers[i])
		if err := s.persist(); err != nil {
			s.data.Whispers[i] = previous
			return fmt.Errorf("failed to update whisper %d: %w", whisperID, err)
		}
		return nil
	}

	return nil
}

// selectWhispers must be called with s.mu held.
func (s *Store) selectWhispers(limit int, keep func(w whisperRecord) bool) []models.Whisper {
	whispers := make([]models.Whisper, 0)
	for _, r := range s.data.Whispers {
		if !keep(r) {
			continue
		}
		w := models.Whisper{
			ID:        r.ID,
			Text:      r.Text,
			Latitude:  r.Lat,
			Longitude: r.Lng,
			CreatedAt: r.CreatedAt,
		}
		if r.Place != nil {
			w.Place = *r.Place
		}
		whispers = append(whispers, w)
	}

	sort.SliceStable(whispers, func(i, j int) bool {
		return whispers[i].CreatedAt.After(whispers[j].CreatedAt)
	})
	if limit > 0 && len(whispers) > limit {
		whispers = whispers[:limit]
	}

	return whispers
}

// persist writes the data set to a temp file and renames it over the data file.
// It must be called with s.mu held.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	return nil
}
