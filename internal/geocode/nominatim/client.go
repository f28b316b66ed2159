// Package nominatim provides a client for the OpenStreetMap Nominatim
// geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fuelr/fuelr/internal/provider/resilience"
	"github.com/fuelr/fuelr/pkg/geo"
)

const (
	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// ProviderName identifies this provider.
	ProviderName = "nominatim"

	// userAgent identifies us per the Nominatim usage policy.
	userAgent = "Fuelr/1.0 (support@fuelr.app)"
)

// ErrNoResults is returned when a postcode cannot be geocoded.
var ErrNoResults = errors.New("no geocoding results")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is a Nominatim geocoding client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// SearchPostcode geocodes a UK postcode to coordinates.
func (c *Client) SearchPostcode(ctx context.Context, postcode string) (geo.LatLng, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("q", postcode)
	query.Set("countrycodes", "gb")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), http.NoBody)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("geocode postcode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.LatLng{}, fmt.Errorf("unexpected status %d from geocoding endpoint", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.LatLng{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return geo.LatLng{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("parse longitude: %w", err)
	}

	return geo.LatLng{Lat: lat, Lng: lng}, nil
}
