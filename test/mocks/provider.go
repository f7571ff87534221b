package mocks

import (
	"context"

	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/stretchr/testify/mock"
)

// Provider is a mock type for the geocoding.Provider type.
type Provider struct {
	mock.Mock
}

// NewProvider creates a new instance of Provider. It also registers a cleanup
// function on t to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Provider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	ret := m.Called(ctx, coords)

	return ret.String(0), ret.Error(1)
}
