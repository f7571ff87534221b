package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/aiden123456789/Whispers/internal/geocoding"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

var _ geocoding.GoogleAPIClient = (*mocks.GoogleAPIClient)(nil)

func TestGoogleReverseGeocode(t *testing.T) {
	ctx := t.Context()
	coords := models.Coordinates{Latitude: 33.9519, Longitude: -83.3576}
	req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: 33.9519, Lng: -83.3576}}

	t.Run("api returns error", func(t *testing.T) {
		mockClient := mocks.NewGoogleAPIClient(t)
		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())

		mockClient.On("ReverseGeocode", mock.Anything, req).Return(nil, assert.AnError).Once()

		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("api return empty response", func(t *testing.T) {
		mockClient := mocks.NewGoogleAPIClient(t)
		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())

		mockClient.On("ReverseGeocode", mock.Anything, req).Return(nil, nil).Once()

		place, err := provider.ReverseGeocode(ctx, coords)

		require.Empty(t, place)
		require.ErrorIs(t, err, geocoding.ErrEmptyResponse)
	})

	t.Run("neighborhood preferred over locality", func(t *testing.T) {
		mockClient := mocks.NewGoogleAPIClient(t)
		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())

		mockResponse := []maps.GeocodingResult{{
			FormattedAddress: "100 College Station Rd, Athens, GA 30602, USA",
			AddressComponents: []maps.AddressComponent{
				{LongName: "Athens", Types: []string{"locality", "political"}},
				{LongName: "Five Points", Types: []string{"neighborhood", "political"}},
			},
		}}

		mockClient.On("ReverseGeocode", mock.Anything, req).Return(mockResponse, nil).Once()

		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Five Points", place)
	})

	t.Run("falls back to formatted address", func(t *testing.T) {
		mockClient := mocks.NewGoogleAPIClient(t)
		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())

		mockResponse := []maps.GeocodingResult{{
			FormattedAddress: "Georgia, USA",
			AddressComponents: []maps.AddressComponent{
				{LongName: "Georgia", Types: []string{"administrative_area_level_1"}},
			},
		}}

		mockClient.On("ReverseGeocode", mock.Anything, req).Return(mockResponse, nil).Once()

		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Georgia, USA", place)
	})
}
