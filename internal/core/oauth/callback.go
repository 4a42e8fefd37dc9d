package oauth

import (
	"context"
	"errors"
	"log/slog"

	"Tether/internal/core/users"
)

// ValidateState checks a callback's code and state against the store and
// returns the user the state was issued to.
//
// Failures are *CallbackError values: invalid_request when an input is
// missing, invalid_state when the state is malformed or names an unknown
// provider, invalid_state_not_found when no live record matches, and
// invalid_state_mismatch when the selected record or the provider segment
// does not match. Expiry is left to the store.
func (s *Service) ValidateState(ctx context.Context, provider users.Provider, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", callbackErr(CodeInvalidRequest, errors.New("missing code or state"))
	}

	_, userID, rawProvider, err := ParseState(state)
	if err != nil {
		return "", callbackErr(CodeInvalidState, err)
	}

	stateProvider, err := users.ParseProvider(rawProvider)
	if err != nil {
		return "", callbackErr(CodeInvalidState, err)
	}

	records, err := s.states.ListByUserID(ctx, userID, state)
	if err != nil {
		s.logger.Error("failed to look up oauth state",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return "", callbackErr(CodeInvalidStateNotFound, err)
	}
	if len(records) == 0 {
		return "", callbackErr(CodeInvalidStateNotFound, nil)
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if rec.TTL > latest.TTL {
			latest = rec
		}
	}

	if latest.State != state {
		return "", callbackErr(CodeInvalidStateMismatch, errors.New("stored state differs"))
	}
	if stateProvider != provider {
		return "", callbackErr(CodeInvalidStateMismatch, errors.New("state issued for "+stateProvider.String()))
	}

	return userID, nil
}

// HandleCallback completes an authorization: it validates state, exchanges
// the code and stores the resulting tokens under the user. Every failure is
// a *CallbackError whose Code is safe to show the browser.
func (s *Service) HandleCallback(ctx context.Context, provider users.Provider, code, state string) error {
	err := s.handleCallback(ctx, provider, code, state)
	if err != nil {
		s.metrics.Callback(provider.String(), string(CodeOf(err)))
		return err
	}
	s.metrics.Callback(provider.String(), "success")
	return nil
}

func (s *Service) handleCallback(ctx context.Context, provider users.Provider, code, state string) error {
	userID, err := s.ValidateState(ctx, provider, code, state)
	if err != nil {
		return err
	}

	cfg, err := s.config(provider)
	if err != nil {
		return callbackErr(CodeBadRequest, err)
	}

	tokens, err := s.client.Exchange(ctx, cfg, code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed",
			slog.String("user_id", userID),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		return callbackErr(CodeBadRequest, err)
	}

	conn := &users.Connection{
		OAuth: &users.TokenRecord{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			Scope:        tokens.Scope,
			ExpiresAt:    s.now().Unix() + tokens.ExpiresIn,
		},
	}

	if provider == users.ProviderJira {
		conn.CloudID = s.lookupCloudID(ctx, cfg, userID, tokens.AccessToken)
	}

	if err := s.saveConnection(ctx, userID, provider, conn); err != nil {
		s.logger.Error("failed to store oauth tokens",
			slog.String("user_id", userID),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		return callbackErr(CodeUserUpdateError, err)
	}

	if s.opts.ConsumeState {
		if err := s.states.Delete(ctx, userID, state); err != nil {
			s.logger.Warn("failed to consume oauth state",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("provider connected",
		slog.String("user_id", userID),
		slog.String("provider", provider.String()))
	return nil
}

// lookupCloudID returns the first Atlassian site reachable with the token,
// or "" when none can be found. Failure does not block the connection.
func (s *Service) lookupCloudID(ctx context.Context, cfg ProviderConfig, userID, accessToken string) string {
	sites, err := s.client.AccessibleResources(ctx, cfg, accessToken)
	if err != nil {
		s.logger.Warn("failed to list jira sites",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return ""
	}
	if len(sites) == 0 {
		s.logger.Warn("jira token has no accessible sites", slog.String("user_id", userID))
		return ""
	}
	return sites[0].ID
}
