package mocks

import (
	"context"
	"time"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/stretchr/testify/mock"
)

// Interface is a mock type for the repository.Interface type.
type Interface struct {
	mock.Mock
}

// NewInterface creates a new instance of Interface. It also registers a cleanup
// function on t to assert the mocks expectations.
func NewInterface(t interface {
	mock.TestingT
	Cleanup(func())
}) *Interface {
	m := &Interface{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Interface) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Interface) SaveWhisper(ctx context.Context, whisper models.Whisper) (models.Whisper, error) {
	ret := m.Called(ctx, whisper)

	if fn, ok := ret.Get(0).(func(context.Context, models.Whisper) models.Whisper); ok {
		return fn(ctx, whisper), ret.Error(1)
	}
	stored, _ := ret.Get(0).(models.Whisper)

	return stored, ret.Error(1)
}

func (m *Interface) FetchRecentWhispers(ctx context.Context, since time.Time, limit int) ([]models.Whisper, error) {
	ret := m.Called(ctx, since, limit)
	whispers, _ := ret.Get(0).([]models.Whisper)

	return whispers, ret.Error(1)
}

func (m *Interface) FetchWhispersInBox(
	ctx context.Context,
	box geo.Box,
	since time.Time,
	limit int,
) ([]models.Whisper, error) {
	ret := m.Called(ctx, box, since, limit)
	whispers, _ := ret.Get(0).([]models.Whisper)

	return whispers, ret.Error(1)
}

func (m *Interface) DeleteWhispersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := m.Called(ctx, cutoff)
	deleted, _ := ret.Get(0).(int64)

	return deleted, ret.Error(1)
}

func (m *Interface) FetchWhispersForLabeling(ctx context.Context, limit int) ([]models.Task, error) {
	ret := m.Called(ctx, limit)
	tasks, _ := ret.Get(0).([]models.Task)

	return tasks, ret.Error(1)
}

func (m *Interface) UpdateWhisperPlace(ctx context.Context, whisperID int64, place string) error {
	return m.Called(ctx, whisperID, place).Error(0)
}

func (m *Interface) IncrementLabelFailure(ctx context.Context, whisperID int64, errMsg string) error {
	return m.Called(ctx, whisperID, errMsg).Error(0)
}

func (m *Interface) SaveSubscription(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *Interface) FetchSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	ret := m.Called(ctx)
	subs, _ := ret.Get(0).([]models.Subscription)

	return subs, ret.Error(1)
}

func (m *Interface) DeleteSubscription(ctx context.Context, endpoint string) error {
	return m.Called(ctx, endpoint).Error(0)
}
