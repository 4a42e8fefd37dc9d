package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Tether/internal/core/users"
)

const msgUpdateFailed = "Error updating user"

// Disconnect revokes the provider token when possible and clears the
// provider's entry. Revocation is best effort; the local entry is cleared
// either way. Calling it again on a disconnected provider reports
// "No access token found" and changes nothing.
func (s *Service) Disconnect(ctx context.Context, userID string, provider users.Provider) (*DisconnectResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		s.metrics.Disconnect(provider.String(), "not_connected")
		return &DisconnectResult{Success: false, Message: msgNoAccessToken}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	tokens := user.Providers.Tokens(provider)
	if tokens == nil || tokens.AccessToken == "" {
		s.metrics.Disconnect(provider.String(), "not_connected")
		return &DisconnectResult{Success: false, Message: msgNoAccessToken}, nil
	}

	if cfg, cfgErr := s.config(provider); cfgErr != nil {
		s.logger.Warn("skipping token revocation", slog.String("error", cfgErr.Error()))
	} else if revokeErr := s.client.Revoke(ctx, cfg, tokens.AccessToken); revokeErr != nil {
		s.logger.Warn("token revocation failed",
			slog.String("user_id", userID),
			slog.String("provider", provider.String()),
			slog.String("error", revokeErr.Error()))
	}

	providers := user.Providers.Clone()
	providers[provider] = nil
	if err := s.users.UpdateProviders(ctx, userID, providers); err != nil {
		s.logger.Error("failed to clear provider",
			slog.String("user_id", userID),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		s.metrics.Disconnect(provider.String(), "failure")
		return &DisconnectResult{Success: false, Message: msgUpdateFailed}, nil
	}

	s.logger.Info("provider disconnected",
		slog.String("user_id", userID),
		slog.String("provider", provider.String()))
	s.metrics.Disconnect(provider.String(), "success")

	return &DisconnectResult{Success: true, Message: provider.String() + " disconnected"}, nil
}
