// Package geo holds the great-circle math used for every proximity test.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/aiden123456789/Whispers/internal/models"
)

// EarthRadiusMeters is the spherical Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// ErrInvalidCoordinates is returned when a point is outside the valid lat/lng ranges.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Distance returns the Haversine great-circle distance between a and b in meters.
func Distance(a, b models.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Within reports whether b lies no more than meters away from a.
func Within(a, b models.Coordinates, meters float64) bool {
	return Distance(a, b) <= meters
}

// Validate checks that c is a finite point with lat in [-90, 90] and lng in [-180, 180].
func Validate(c models.Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, c.Longitude)
	}

	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
