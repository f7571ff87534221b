package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType names a reverse geocoding backend in configuration.
type ProviderType string

const (
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeNominatim ProviderType = "nominatim"
	ProviderTypeVisicom   ProviderType = "visicom"
	// ProviderTypeNone turns place labeling off.
	ProviderTypeNone ProviderType = "none"
)

// defaultVisicomRate is used when no rate limit is configured for Visicom.
const defaultVisicomRate = 5

var (
	// ErrProviderDisabled is returned by NewProvider for ProviderTypeNone.
	ErrProviderDisabled = errors.New("place labeling is disabled")
	// ErrAPIKeyRequired is returned when a keyed provider is configured without a key.
	ErrAPIKeyRequired = errors.New("API key is required")
	// ErrUnsupportedProvider is returned for unknown provider types.
	ErrUnsupportedProvider = errors.New("unsupported provider type")
)

// ProviderConfig holds what NewProvider needs to build any provider.
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string // google and visicom only
	RateLimit int    // requests per second, 0 selects the provider default
	Logger    *slog.Logger
}

type builder struct {
	needsKey bool
	build    func(config ProviderConfig) (Provider, error)
}

var builders = map[ProviderType]builder{
	ProviderTypeGoogle:    {needsKey: true, build: buildGoogle},
	ProviderTypeNominatim: {build: buildNominatim},
	ProviderTypeVisicom:   {needsKey: true, build: buildVisicom},
}

// NewProvider returns the provider selected by config.Type.
// It returns ErrProviderDisabled for "none", so callers can skip the labeling worker.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Type == ProviderTypeNone {
		return nil, ErrProviderDisabled
	}

	b, ok := builders[config.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Type)
	}
	if b.needsKey && config.APIKey == "" {
		return nil, fmt.Errorf("%w for %s provider", ErrAPIKeyRequired, config.Type)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return b.build(config)
}

func buildGoogle(config ProviderConfig) (Provider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

// Nominatim's usage policy caps clients at one request per second, so RateLimit is ignored.
func buildNominatim(config ProviderConfig) (Provider, error) {
	return NewNominatimProvider(config.Logger), nil
}

func buildVisicom(config ProviderConfig) (Provider, error) {
	limit := config.RateLimit
	if limit <= 0 {
		limit = defaultVisicomRate
		config.Logger.Warn("Visicom rate limit not set, using default", "value", limit)
	}

	return NewVisicomProvider(config.APIKey, limit, config.Logger), nil
}
