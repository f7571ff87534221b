package geocoding

import (
	"context"

	"github.com/aiden123456789/Whispers/internal/models"
)

// Provider turns a point into a short place label such as "Five Points, Athens".
type Provider interface {
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error)
}
