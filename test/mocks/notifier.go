package mocks

import (
	"context"

	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/stretchr/testify/mock"
)

// Notifier is a mock type for the service.Notifier type.
type Notifier struct {
	mock.Mock
}

// NewNotifier creates a new instance of Notifier. It also registers a cleanup
// function on t to assert the mocks expectations.
func NewNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *Notifier {
	m := &Notifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Notifier) NotifyNearby(ctx context.Context, whisper models.Whisper) {
	m.Called(ctx, whisper)
}

// Publisher is a mock type for the service.Publisher type.
type Publisher struct {
	mock.Mock
}

// NewPublisher creates a new instance of Publisher. It also registers a cleanup
// function on t to assert the mocks expectations.
func NewPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *Publisher {
	m := &Publisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Publisher) Publish(whisper models.Whisper) {
	m.Called(whisper)
}
