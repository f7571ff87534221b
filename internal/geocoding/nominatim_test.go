package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aiden123456789/Whispers/internal/geocoding"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	noLimit := rate.NewLimiter(rate.Inf, 0)
	coords := models.Coordinates{Latitude: 33.9519, Longitude: -83.3576}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/reverse")
				assert.Equal(t, "33.9519", req.URL.Query().Get("lat"))
				assert.Equal(t, "-83.3576", req.URL.Query().Get("lon"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "16", req.URL.Query().Get("zoom"))
				assert.Equal(
					t,
					"Whispers/1.0 (https://github.com/aiden123456789/Whispers)",
					req.Header.Get("User-Agent"),
				)

				return jsonResponse(http.StatusOK, `{
					"display_name": "Broad Street, Downtown, Athens, Clarke County, Georgia, USA",
					"address": {"road": "Broad Street", "suburb": "Downtown", "city": "Athens"}
				}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Downtown, Athens", place)
	})

	t.Run("town only", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"display_name":"Winterville, GA","address":{"town":"Winterville"}}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Winterville", place)
	})

	t.Run("falls back to display name", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"display_name":"Atlantic Ocean","address":{}}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Atlantic Ocean", place)
	})

	t.Run("unable to geocode", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"error":"Unable to geocode"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		place, err := provider.ReverseGeocode(ctx, coords)

		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
		assert.Empty(t, place)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		_, err := provider.ReverseGeocode(ctx, coords)

		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `invalid json`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		_, err := provider.ReverseGeocode(ctx, coords)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called with a cancelled context")
				return nil, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, rate.NewLimiter(1, 1), logger)
		_, err := provider.ReverseGeocode(newCtx, coords)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewNominatimProvider(t *testing.T) {
	provider := geocoding.NewNominatimProvider(slog.Default())

	require.NotNil(t, provider)
}
