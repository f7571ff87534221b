package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSweeper(t *testing.T) {
	now := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	retention := 48 * time.Hour

	t.Run("deletes rows older than retention", func(t *testing.T) {
		mockRepo := mocks.NewInterface(t)
		m := metrics.NewMetrics(prometheus.NewRegistry())
		sweeper := NewSweeper(slog.Default(), mockRepo, m, retention, time.Hour)
		sweeper.now = func() time.Time { return now }

		mockRepo.On("DeleteWhispersBefore", t.Context(), now.Add(-retention)).Return(int64(3), nil).Once()

		sweeper.sweep(t.Context())

		assert.InDelta(t, 3, testutil.ToFloat64(m.SweptWhispers), 0)
	})

	t.Run("store error is not counted", func(t *testing.T) {
		mockRepo := mocks.NewInterface(t)
		m := metrics.NewMetrics(prometheus.NewRegistry())
		sweeper := NewSweeper(slog.Default(), mockRepo, m, retention, time.Hour)
		sweeper.now = func() time.Time { return now }

		mockRepo.On("DeleteWhispersBefore", t.Context(), now.Add(-retention)).Return(int64(0), assert.AnError).Once()

		sweeper.sweep(t.Context())

		assert.InDelta(t, 0, testutil.ToFloat64(m.SweptWhispers), 0)
	})

	t.Run("run sweeps once on start", func(t *testing.T) {
		mockRepo := mocks.NewInterface(t)
		m := metrics.NewMetrics(prometheus.NewRegistry())
		sweeper := NewSweeper(slog.Default(), mockRepo, m, 0, time.Hour)
		sweeper.now = func() time.Time { return now }

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		mockRepo.On("DeleteWhispersBefore", ctx, now.Add(-DefaultRetention)).Return(int64(0), nil).Once()

		sweeper.Run(ctx)
	})
}
