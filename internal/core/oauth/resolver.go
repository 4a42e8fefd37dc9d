package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"Tether/internal/core/users"
)

// GetValidAccessToken returns a usable access token for the user's provider,
// refreshing it first when the stored one has expired.
//
// A *TokenError means there is nothing usable (no token, or the provider
// refused the refresh) and is meant to be shown to the caller as data. Other
// errors are store or transport failures. Concurrent refreshes are not
// serialized; the last write wins.
func (s *Service) GetValidAccessToken(ctx context.Context, userID string, provider users.Provider) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	current := user.Providers.Get(provider)
	if current == nil || current.OAuth == nil || current.OAuth.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	now := s.now()
	if current.OAuth.ExpiresAt > now.Unix() {
		return current.OAuth.AccessToken, nil
	}

	token, err := s.refresh(ctx, user, provider, current, now)
	if err != nil {
		s.metrics.Refresh(provider.String(), "failure")
		return "", err
	}
	s.metrics.Refresh(provider.String(), "success")
	return token, nil
}

func (s *Service) refresh(ctx context.Context, user *users.User, provider users.Provider, current *users.Connection, now time.Time) (string, error) {
	old := current.OAuth
	if old.RefreshToken == "" {
		return "", &TokenError{Message: "Token refresh failed: no refresh token stored"}
	}

	cfg, err := s.config(provider)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Refresh(ctx, cfg, old.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed",
			slog.String("user_id", user.ID),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		return "", err
	}

	ttl := int64(s.opts.RefreshTTL / time.Second)
	if s.opts.TrustRefreshExpiresIn && resp.ExpiresIn > 0 {
		ttl = resp.ExpiresIn
	}

	record := &users.TokenRecord{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Scope:        resp.Scope,
		ExpiresAt:    now.Unix() + ttl,
	}
	if record.RefreshToken == "" {
		record.RefreshToken = old.RefreshToken
	}
	if record.Scope == "" {
		record.Scope = old.Scope
	}

	updated := *current
	updated.OAuth = record

	providers := user.Providers.Clone()
	providers[provider] = &updated
	if err := s.users.UpdateProviders(ctx, user.ID, providers); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	s.logger.Info("access token refreshed",
		slog.String("user_id", user.ID),
		slog.String("provider", provider.String()),
		slog.Int64("expires_at", record.ExpiresAt))

	return record.AccessToken, nil
}
