// Package clustering buckets whispers into map-marker groups by proximity.
package clustering

import (
	"sort"

	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/models"
)

const (
	// DefaultGroupRadius is the marker grouping radius in meters (100 ft).
	DefaultGroupRadius = 30.48
	// NearbyRadius is the radius in meters of the "near me" group around a user.
	NearbyRadius = 304.0
)

// Cluster is a group of whispers rendered as a single marker.
type Cluster struct {
	Center   models.Coordinates // Center is the mean location of the members.
	Whispers []models.Whisper   // Whispers are sorted by creation time, oldest first.
}

// Group assigns each whisper, in input order, to the first cluster whose seed lies
// within radius meters, otherwise the whisper seeds a new cluster.
// Clusters are returned in the order they were seeded.
func Group(whispers []models.Whisper, radius float64) []Cluster {
	var (
		seeds  []models.Coordinates
		groups [][]models.Whisper
	)

	for _, w := range whispers {
		pos := w.Coordinates()
		placed := false
		for i, seed := range seeds {
			if geo.Within(seed, pos, radius) {
				groups[i] = append(groups[i], w)
				placed = true
				break
			}
		}
		if !placed {
			seeds = append(seeds, pos)
			groups = append(groups, []models.Whisper{w})
		}
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, members := range groups {
		sortByCreation(members)
		clusters = append(clusters, Cluster{Center: Centroid(members), Whispers: members})
	}

	return clusters
}

// Split partitions whispers around the user location. A whisper is near when it lies
// within radius meters of user. The whisper with ID mine always lands in near, even
// when it is far away, and never in far. Pass mine = 0 when the caller has no whisper.
func Split(
	whispers []models.Whisper,
	user models.Coordinates,
	radius float64,
	mine int64,
) ([]models.Whisper, []models.Whisper) {
	var near, far []models.Whisper

	for _, w := range whispers {
		isMine := mine != 0 && w.ID == mine
		switch {
		case isMine, geo.Within(user, w.Coordinates(), radius):
			near = append(near, w)
		default:
			far = append(far, w)
		}
	}

	return near, far
}

// Centroid returns the arithmetic mean of the whisper locations, the zero point when empty.
func Centroid(whispers []models.Whisper) models.Coordinates {
	if len(whispers) == 0 {
		return models.Coordinates{}
	}

	var lat, lng float64
	for _, w := range whispers {
		lat += w.Latitude
		lng += w.Longitude
	}
	n := float64(len(whispers))

	return models.Coordinates{Latitude: lat / n, Longitude: lng / n}
}

func sortByCreation(whispers []models.Whisper) {
	sort.SliceStable(whispers, func(i, j int) bool {
		return whispers[i].CreatedAt.Before(whispers[j].CreatedAt)
	})
}
