package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxTokenResponseSize caps how much of a provider response is read
const maxTokenResponseSize = 1 << 20

// TokenClient talks to provider token, revocation and site endpoints
type TokenClient struct {
	http HTTPClient
}

// NewTokenClient creates a token client; a nil client means http.DefaultClient
func NewTokenClient(client HTTPClient) *TokenClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenClient{http: client}
}

// Exchange trades an authorization code for tokens.
// Success is judged by a non-empty access_token in the body, not by the HTTP
// status; anything else returns an error.
func (c *TokenClient) Exchange(ctx context.Context, cfg ProviderConfig, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", cfg.RedirectURI)
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)

	resp, err := c.postForm(ctx, cfg.TokenURL, data, "")
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tokenResp TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseSize)).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response (status %d): %w", resp.StatusCode, err)
	}

	if tokenResp.AccessToken == "" {
		reason := tokenResp.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("token exchange rejected: %s", reason)
	}

	return &tokenResp, nil
}

// Refresh obtains a new access token with a refresh token.
// Every failure, transport included, comes back as *TokenError.
func (c *TokenClient) Refresh(ctx context.Context, cfg ProviderConfig, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)

	resp, err := c.postForm(ctx, cfg.TokenURL, data, "")
	if err != nil {
		return nil, &TokenError{Message: "Token refresh failed: " + err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	var tokenResp TokenResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseSize)).Decode(&tokenResp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := tokenResp.Error
		if decodeErr != nil || reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, &TokenError{Message: "Token refresh failed: " + reason}
	}

	if decodeErr != nil || tokenResp.AccessToken == "" {
		return nil, &TokenError{Message: msgRefreshNoAccessToken}
	}

	return &tokenResp, nil
}

// Revoke asks the provider to invalidate a token.
// The token travels both as a bearer credential and in the form body.
func (c *TokenClient) Revoke(ctx context.Context, cfg ProviderConfig, token string) error {
	if cfg.RevocationURL == "" {
		return fmt.Errorf("%w: no revocation endpoint", ErrProviderNotConfigured)
	}

	data := url.Values{}
	data.Set("token", token)

	resp, err := c.postForm(ctx, cfg.RevocationURL, data, token)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxTokenResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("revocation endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// AccessibleResource is one Atlassian site a Jira token can reach
type AccessibleResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AccessibleResources lists the Atlassian sites available to accessToken
func (c *TokenClient) AccessibleResources(ctx context.Context, cfg ProviderConfig, accessToken string) ([]AccessibleResource, error) {
	if cfg.AccessibleResourcesURL == "" {
		return nil, fmt.Errorf("%w: no accessible-resources endpoint", ErrProviderNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.AccessibleResourcesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible resources: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("accessible resources returned %d", resp.StatusCode)
	}

	var sites []AccessibleResource
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseSize)).Decode(&sites); err != nil {
		return nil, fmt.Errorf("failed to decode accessible resources: %w", err)
	}
	return sites, nil
}

func (c *TokenClient) postForm(ctx context.Context, endpoint string, data url.Values, bearer string) (*http.Response, error) {
	if endpoint == "" {
		return nil, ErrProviderNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.http.Do(req)
}
