package clustering_test

import (
	"testing"
	"time"

	"github.com/aiden123456789/Whispers/internal/clustering"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metersLat is roughly one meter of latitude in degrees.
const metersLat = 1.0 / 111194.9

func whisperAt(id int64, lat, lng float64, created time.Time) models.Whisper {
	return models.Whisper{ID: id, Text: "w", Latitude: lat, Longitude: lng, CreatedAt: created}
}

func TestGroup(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)
	lat, lng := 33.9519, -83.3576

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, clustering.Group(nil, clustering.DefaultGroupRadius))
	})

	t.Run("first fit against seed", func(t *testing.T) {
		t.Parallel()
		whispers := []models.Whisper{
			whisperAt(1, lat, lng, base.Add(2*time.Minute)),
			whisperAt(2, lat+10*metersLat, lng, base),
			whisperAt(3, lat+500*metersLat, lng, base),
			whisperAt(4, lat+20*metersLat, lng, base.Add(time.Minute)),
		}

		clusters := clustering.Group(whispers, clustering.DefaultGroupRadius)

		require.Len(t, clusters, 2)
		require.Len(t, clusters[0].Whispers, 3)
		assert.Equal(t, int64(2), clusters[0].Whispers[0].ID)
		assert.Equal(t, int64(4), clusters[0].Whispers[1].ID)
		assert.Equal(t, int64(1), clusters[0].Whispers[2].ID)
		assert.InDelta(t, lat+10*metersLat, clusters[0].Center.Latitude, 1e-9)
		assert.InDelta(t, lng, clusters[0].Center.Longitude, 1e-9)

		require.Len(t, clusters[1].Whispers, 1)
		assert.Equal(t, int64(3), clusters[1].Whispers[0].ID)
	})

	t.Run("chain does not merge past the seed", func(t *testing.T) {
		t.Parallel()
		whispers := []models.Whisper{
			whisperAt(1, lat, lng, base),
			whisperAt(2, lat+25*metersLat, lng, base),
			whisperAt(3, lat+50*metersLat, lng, base),
		}

		clusters := clustering.Group(whispers, clustering.DefaultGroupRadius)

		require.Len(t, clusters, 2)
		assert.Len(t, clusters[0].Whispers, 2)
		assert.Equal(t, int64(3), clusters[1].Whispers[0].ID)
	})
}

func TestSplit(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)
	user := models.Coordinates{Latitude: 33.9519, Longitude: -83.3576}

	whispers := []models.Whisper{
		whisperAt(1, user.Latitude+100*metersLat, user.Longitude, base),
		whisperAt(2, user.Latitude+1000*metersLat, user.Longitude, base),
		whisperAt(3, user.Latitude+2000*metersLat, user.Longitude, base),
	}

	t.Run("without own whisper", func(t *testing.T) {
		t.Parallel()
		near, far := clustering.Split(whispers, user, clustering.NearbyRadius, 0)
		require.Len(t, near, 1)
		assert.Equal(t, int64(1), near[0].ID)
		assert.Len(t, far, 2)
	})

	t.Run("own whisper is always near", func(t *testing.T) {
		t.Parallel()
		near, far := clustering.Split(whispers, user, clustering.NearbyRadius, 3)
		require.Len(t, near, 2)
		assert.Equal(t, int64(3), near[1].ID)
		require.Len(t, far, 1)
		assert.Equal(t, int64(2), far[0].ID)
	})
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.Coordinates{}, clustering.Centroid(nil))

	c := clustering.Centroid([]models.Whisper{
		{Latitude: 10, Longitude: 20},
		{Latitude: 12, Longitude: 24},
	})
	assert.InDelta(t, 11, c.Latitude, 1e-9)
	assert.InDelta(t, 22, c.Longitude, 1e-9)
}
