package geo

import (
	"math"

	"github.com/aiden123456789/Whispers/internal/models"
)

// metersPerDegree is the rough length of one degree of latitude.
const metersPerDegree = 111111.0

// Box is a lat/lng rectangle used to prefilter candidates in the store.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns the square degree box of half-side meters/111111 around center.
// The same degree delta is applied to longitude, so the box is only a prefilter and
// callers must still run an exact Distance check.
func BoundingBox(center models.Coordinates, meters float64) Box {
	delta := meters / metersPerDegree

	return Box{
		MinLat: center.Latitude - delta,
		MaxLat: center.Latitude + delta,
		MinLng: center.Longitude - delta,
		MaxLng: center.Longitude + delta,
	}
}

// CoveringBox is BoundingBox with the longitude half-side divided by cos(lat), so
// every point within meters of center is inside it. When the box would cross a pole
// or the antimeridian the longitude span is the whole [-180, 180] range.
func CoveringBox(center models.Coordinates, meters float64) Box {
	box := BoundingBox(center, meters)

	cos := math.Cos(toRadians(center.Latitude))
	if cos < 1e-6 {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}

	delta := meters / metersPerDegree / cos
	box.MinLng = center.Longitude - delta
	box.MaxLng = center.Longitude + delta

	return box.wrap()
}

// Expand grows every side of the box by delta degrees. Like CoveringBox, a box
// pushed over a pole or the antimeridian spans every longitude.
func (b Box) Expand(delta float64) Box {
	return Box{
		MinLat: b.MinLat - delta,
		MaxLat: b.MaxLat + delta,
		MinLng: b.MinLng - delta,
		MaxLng: b.MaxLng + delta,
	}.wrap()
}

// wrap replaces a longitude range that leaves [-180, 180], or a latitude range that
// passes a pole, with the full longitude range. Stores compare plain BETWEEN bounds,
// so a wrapped range would drop the points on the far side.
func (b Box) wrap() Box {
	if b.MinLng < -180 || b.MaxLng > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		b.MinLng, b.MaxLng = -180, 180
	}

	return b
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c models.Coordinates) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLng && c.Longitude <= b.MaxLng
}

// Round rounds both axes of c to the given number of decimals, half away from zero.
// A non-positive decimals value returns c unchanged.
func Round(c models.Coordinates, decimals int) models.Coordinates {
	if decimals <= 0 {
		return c
	}
	scale := math.Pow(10, float64(decimals))

	return models.Coordinates{
		Latitude:  math.Round(c.Latitude*scale) / scale,
		Longitude: math.Round(c.Longitude*scale) / scale,
	}
}

// RoundingCell returns half the size, in degrees, of the grid cell Round snaps to.
func RoundingCell(decimals int) float64 {
	if decimals <= 0 {
		return 0
	}

	return 0.5 / math.Pow(10, float64(decimals))
}
