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
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/aiden123456789/Whispers/internal/models"
)

// NominatimBaseURL is the public reverse geocoding endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

// nominatimUserAgent MUST include valid contact info per Nominatim usage policy:
// https://operations.osmfoundation.org/policies/nominatim/
const nominatimUserAgent = "Whispers/1.0 (https://github.com/aiden123456789/Whispers)"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client    HTTPClient    // HTTP client for making requests
	baseURL   string        // Base URL for the Nominatim API
	log       *slog.Logger  // Logger for logging operations
	limiter   *rate.Limiter // Keeps requests within the fair use policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents the JSON response from Nominatim reverse API.
type nominatimResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
)

var (
	nominatimAreaKeys = []string{"neighbourhood", "quarter", "suburb", "road"}
	nominatimTownKeys = []string{"city", "town", "village", "hamlet"}
)

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint and one request per second.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		rate.NewLimiter(rate.Every(time.Second), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and limiter.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		limiter:   limiter,
		userAgent: nominatimUserAgent,
	}
}

// ReverseGeocode converts coordinates to a place label using the Nominatim API.
// The label is "<area>, <town>" when the response carries those address parts,
// otherwise the full display name.
func (np *NominatimProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lng", coords.Longitude)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("format", "json")
	query.Set("zoom", "16")
	query.Set("addressdetails", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var result nominatimResponse
	if err = json.Unmarshal(body, &result); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return "", fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNominatimEmptyResponse, result.Error)
	}

	parts := make([]string, 0, 2)
	if area := firstAddressPart(result.Address, nominatimAreaKeys); area != "" {
		parts = append(parts, area)
	}
	if town := firstAddressPart(result.Address, nominatimTownKeys); town != "" {
		parts = append(parts, town)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", "), nil
	}

	if result.DisplayName == "" {
		return "", ErrNominatimEmptyResponse
	}

	return result.DisplayName, nil
}

func firstAddressPart(address map[string]string, keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(address[key]); v != "" {
			return v
		}
	}

	return ""
}
