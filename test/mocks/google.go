package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"googlemaps.github.io/maps"
)

// GoogleAPIClient is a mock type for the geocoding.GoogleAPIClient type.
type GoogleAPIClient struct {
	mock.Mock
}

// NewGoogleAPIClient creates a new instance of GoogleAPIClient. It also registers a
// cleanup function on t to assert the mocks expectations.
func NewGoogleAPIClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *GoogleAPIClient {
	m := &GoogleAPIClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *GoogleAPIClient) ReverseGeocode(
	ctx context.Context,
	r *maps.GeocodingRequest,
) ([]maps.GeocodingResult, error) {
	ret := m.Called(ctx, r)

	var results []maps.GeocodingResult
	if rf, ok := ret.Get(0).(func(context.Context, *maps.GeocodingRequest) []maps.GeocodingResult); ok {
		results = rf(ctx, r)
	} else if ret.Get(0) != nil {
		results = ret.Get(0).([]maps.GeocodingResult)
	}

	return results, ret.Error(1)
}
