package fuelfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	tokenPath = "/api/v1/oauth/generate_access_token"

	// tokenExpiryMargin is how close to expiry a cached token may be before
	// it is renewed instead of reused.
	tokenExpiryMargin = 30 * time.Second

	// defaultTokenTTL is used when the token response omits expires_in.
	defaultTokenTTL = 3600 * time.Second
)

// TokenSourceConfig holds configuration for the token source.
type TokenSourceConfig struct {
	// BaseURL is the Fuel Finder API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// ClientID and ClientSecret are the upstream OAuth credentials (required).
	ClientID     string
	ClientSecret string

	// HTTPClient executes the token exchange (default: http.DefaultClient).
	HTTPClient HTTPDoer

	// Logger for token lifecycle events.
	Logger zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// TokenSource acquires and caches an upstream access token. The cached
// token is replaced wholesale on renewal; no caller ever observes a
// partially updated credential.
type TokenSource struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   HTTPDoer
	logger       zerolog.Logger
	now          func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewTokenSource creates a new token source.
func NewTokenSource(cfg TokenSourceConfig) *TokenSource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenSource{
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		logger:       cfg.Logger,
		now:          now,
	}
}

// Token returns a valid access token, renewing it when the cached one is
// missing or within the expiry safety margin. There is no retry here:
// callers decide whether to Invalidate and try again.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.accessToken != "" && t.expiresAt.After(now.Add(tokenExpiryMargin)) {
		return t.accessToken, nil
	}

	if t.clientID == "" || t.clientSecret == "" {
		return "", ErrMissingCredentials
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     t.clientID,
		"client_secret": t.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	// The token payload is sometimes wrapped in a data envelope.
	var payload struct {
		Data *tokenPayload `json:"data"`
		tokenPayload
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	token := payload.tokenPayload
	if payload.Data != nil {
		token = *payload.Data
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	ttl := defaultTokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}

	t.accessToken = token.AccessToken
	t.refreshToken = token.RefreshToken
	t.expiresAt = now.Add(ttl)

	t.logger.Debug().
		Time("expires_at", t.expiresAt).
		Msg("access token renewed")

	return t.accessToken, nil
}

// Invalidate drops the cached token so the next Token call performs a fresh
// exchange. Used when upstream rejects a token mid-fetch.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accessToken = ""
	t.refreshToken = ""
	t.expiresAt = time.Time{}
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
