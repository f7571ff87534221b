package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/aiden123456789/Whispers/internal/models"
)

// VisicomBaseURL -- Visicom API base URL.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/uk/geocode.json"

// visicomSearchRadius is the search radius in meters around the point.
const visicomSearchRadius = 50

// VisicomProvider implements reverse geocoding using Visicom API.
type VisicomProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Visicom API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Visicom provider.
var (
	ErrVisicomEmptyResponse = errors.New("visicom API returned empty response")
	ErrVisicomUnathorized   = errors.New("visicom API unathorized (invalid API key)")
)

// Visicom API response (simplified for the labeling use-case).
type visicomResponse struct {
	Properties struct {
		Name       string `json:"name"`
		Settlement string `json:"settlement"`
	} `json:"properties"`
}

// NewVisicomProvider creates a new Visicom geocoding provider.
func NewVisicomProvider(apiKey string, rateLimit int, log *slog.Logger) *VisicomProvider {
	const timeout = 10

	return &VisicomProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: VisicomBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewVisicomProviderWithClient allows injecting custom HTTP client.
func NewVisicomProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomProvider {
	return &VisicomProvider{
		client:  client,
		baseURL: VisicomBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// ReverseGeocode returns the name of the nearest Visicom object around coords,
// with its settlement appended when the API reports one.
func (vp *VisicomProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	if err := vp.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	vp.log.DebugContext(ctx, "Reverse geocoding using Visicom", "lat", coords.Latitude, "lng", coords.Longitude)

	reqURL, err := url.Parse(vp.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	// Visicom expects "lng,lat".
	near := strconv.FormatFloat(coords.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(coords.Latitude, 'f', -1, 64)

	query := reqURL.Query()
	query.Set("near", near)
	query.Set("r", strconv.Itoa(visicomSearchRadius))
	query.Set("limit", "1")
	query.Set("key", vp.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := vp.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrVisicomUnathorized
	default:
		body, _ := io.ReadAll(resp.Body)
		vp.log.ErrorContext(ctx, "Visicom API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("visicom API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result visicomResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode visicom response: %w", err)
	}

	name := result.Properties.Name
	if name == "" {
		return "", ErrVisicomEmptyResponse
	}
	if settlement := result.Properties.Settlement; settlement != "" && settlement != name {
		name += ", " + settlement
	}

	vp.log.DebugContext(ctx, "Visicom found result", "place", name)

	return name, nil
}
