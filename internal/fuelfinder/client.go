package fuelfinder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Fuel Finder API.
	DefaultBaseURL = "https://www.fuel-finder.service.gov.uk"

	// ProviderName identifies this provider.
	ProviderName = "fuelfinder"

	stationsPath = "/api/v1/pfs"
	pricesPath   = "/api/v1/pfs/fuel-prices"

	// maxBatches bounds the page loop in case upstream never signals end of
	// stream. Hitting the bound is a stop condition, not an error.
	maxBatches = 200

	// endOfStreamSentinel is upstream's signal that no more data exists for
	// the given watermark. It arrives as a 400 and is not an error.
	endOfStreamSentinel = "All PFS data have been fetched successfully"

	// watermarkLayout formats the incremental sync watermark.
	watermarkLayout = "2006-01-02 15:04:05"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpstreamError is a non-recoverable response from the Fuel Finder API.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fuel finder fetch failed: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ClientConfig holds configuration for the Fuel Finder client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// Tokens supplies bearer tokens for API requests (required).
	Tokens *TokenSource

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Fuel Finder API client performing batched retrieval of
// station and price records.
type Client struct {
	baseURL    string
	tokens     *TokenSource
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Fuel Finder client.
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
		tokens:     cfg.Tokens,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// FetchStations retrieves all station records, optionally constrained to
// records effective on or after the since watermark (zero means full fetch).
func (c *Client) FetchStations(ctx context.Context, since time.Time) ([]StationRecord, error) {
	return fetchAllBatched[StationRecord](ctx, c, stationsPath, since)
}

// FetchPrices retrieves all fuel price records, optionally constrained to
// records effective on or after the since watermark (zero means full fetch).
func (c *Client) FetchPrices(ctx context.Context, since time.Time) ([]PriceRecord, error) {
	return fetchAllBatched[PriceRecord](ctx, c, pricesPath, since)
}

// fetchAllBatched pages through an endpoint using the 1-based batch-number
// cursor until upstream signals end of stream, a page comes back empty, or
// the batch cap is reached.
func fetchAllBatched[T any](ctx context.Context, c *Client, path string, since time.Time) ([]T, error) {
	var results []T

	for batch := 1; batch <= maxBatches; batch++ {
		page, stop, err := fetchBatch[T](ctx, c, path, batch, since, false)
		if err != nil {
			return nil, err
		}
		results = append(results, page...)
		if stop {
			break
		}
	}

	c.logger.Debug().
		Str("endpoint", path).
		Int("records", len(results)).
		Bool("incremental", !since.IsZero()).
		Msg("batched fetch completed")

	return results, nil
}

// fetchBatch fetches a single page. On a 401/403 it invalidates the cached
// token and retries the same page exactly once with a fresh one; a second
// rejection propagates.
func fetchBatch[T any](ctx context.Context, c *Client, path string, batch int, since time.Time, retried bool) ([]T, bool, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, false, err
	}

	query := url.Values{}
	query.Set("batch-number", strconv.Itoa(batch))
	if !since.IsZero() {
		query.Set("effective-start-timestamp", since.Format(watermarkLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s batch %d: %w", path, batch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if retried {
			body, _ := io.ReadAll(resp.Body)
			return nil, false, &UpstreamError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
		}
		c.logger.Warn().
			Str("endpoint", path).
			Int("batch", batch).
			Int("status", resp.StatusCode).
			Msg("token rejected mid-fetch, renewing")
		c.tokens.Invalidate()
		return fetchBatch[T](ctx, c, path, batch, since, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusBadRequest && containsSentinel(body) {
			return nil, true, nil
		}
		return nil, false, &UpstreamError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s batch %d: %w", path, batch, err)
	}

	var page []T
	if err := json.Unmarshal(body, &page); err != nil {
		// Non-array payload: normal termination.
		return nil, true, nil
	}
	if len(page) == 0 {
		return nil, true, nil
	}

	return page, false, nil
}

func containsSentinel(body []byte) bool {
	return strings.Contains(string(body), endOfStreamSentinel)
}
