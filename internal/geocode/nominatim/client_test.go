package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelr/fuelr/internal/geocode/nominatim"
)

func TestSearchPostcode(t *testing.T) {
	var gotQuery map[string]string
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"51.5072","lon":"-0.1276","display_name":"London"}]`))
	}))
	defer server.Close()

	client := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	point, err := client.SearchPostcode(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	assert.InDelta(t, 51.5072, point.Lat, 1e-9)
	assert.InDelta(t, -0.1276, point.Lng, 1e-9)

	assert.Equal(t, "json", gotQuery["format"])
	assert.Equal(t, "SW1A 1AA", gotQuery["q"])
	assert.Equal(t, "gb", gotQuery["countrycodes"])
	assert.Equal(t, "1", gotQuery["limit"])
	assert.NotEmpty(t, gotUserAgent)
}

func TestSearchPostcodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.SearchPostcode(context.Background(), "ZZ99 9ZZ")
	assert.ErrorIs(t, err, nominatim.ErrNoResults)
}

func TestSearchPostcodeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.SearchPostcode(context.Background(), "SW1A 1AA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchPostcodeMalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"not-a-number","lon":"-0.1276"}]`))
	}))
	defer server.Close()

	client := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.SearchPostcode(context.Background(), "SW1A 1AA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse latitude")
}
