package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aiden123456789/Whispers/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// labelComponentTypes are address component types tried, in order, for the place label.
var labelComponentTypes = []string{"neighborhood", "sublocality", "locality"}

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// ReverseGeocode asks the Google Maps Geocoding API for the address of coords and returns
// the most specific neighborhood or locality name, falling back to the formatted address.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coords.Latitude, "lng", coords.Longitude)

	req := maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude}}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode coordinates: %w", err)
	}

	if len(results) == 0 {
		return "", ErrEmptyResponse
	}

	for _, wanted := range labelComponentTypes {
		for _, component := range results[0].AddressComponents {
			for _, kind := range component.Types {
				if kind == wanted && component.LongName != "" {
					return component.LongName, nil
				}
			}
		}
	}

	if results[0].FormattedAddress == "" {
		return "", ErrEmptyResponse
	}

	return results[0].FormattedAddress, nil
}
