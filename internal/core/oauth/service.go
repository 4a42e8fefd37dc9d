package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"Tether/internal/core/users"
)

// Service runs the connection lifecycle: state issuance, callback handling,
// token resolution and disconnect.
type Service struct {
	users   UserStore
	states  StateStore
	client  *TokenClient
	configs Providers
	logger  *slog.Logger
	metrics Recorder
	now     func() time.Time
	opts    Options
}

// NewService creates an OAuth service.
// httpClient carries every outbound provider call; its timeout is the caller's choice.
func NewService(userStore UserStore, stateStore StateStore, httpClient HTTPClient, configs Providers, opts Options) *Service {
	s := &Service{
		users:   userStore,
		states:  stateStore,
		client:  NewTokenClient(httpClient),
		configs: configs,
		logger:  opts.Logger,
		metrics: opts.Recorder,
		now:     opts.Now,
		opts:    opts,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.opts.StateTTL <= 0 {
		s.opts.StateTTL = DefaultStateTTL
	}
	if s.opts.RefreshTTL <= 0 {
		s.opts.RefreshTTL = DefaultRefreshTTL
	}
	return s
}

func (s *Service) config(provider users.Provider) (ProviderConfig, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return cfg, nil
}

// GenerateAuthorizationURL issues a fresh state for the user and returns the
// provider consent URL. The state record is persisted before the URL is
// returned; if that fails no URL is handed out.
func (s *Service) GenerateAuthorizationURL(ctx context.Context, userID string, provider users.Provider) (string, error) {
	cfg, err := s.config(provider)
	if err != nil {
		return "", err
	}

	state, ttl, err := GenerateState(userID, provider, s.now(), s.opts.StateTTL)
	if err != nil {
		return "", err
	}

	authURL, err := BuildAuthorizationURL(provider, cfg, state)
	if err != nil {
		return "", err
	}

	rec := &StateRecord{
		UserID:    userID,
		State:     state.String(),
		TTL:       ttl,
		CreatedAt: s.now(),
	}
	if err := s.states.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	s.logger.Info("issued oauth state",
		slog.String("user_id", userID),
		slog.String("provider", provider.String()),
		slog.Int64("ttl", ttl))

	return authURL, nil
}

// saveConnection writes one provider's connection with read-merge-write.
// Sibling provider entries are carried over untouched.
func (s *Service) saveConnection(ctx context.Context, userID string, provider users.Provider, conn *users.Connection) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	providers := user.Providers.Clone()
	providers[provider] = conn

	if err := s.users.UpdateProviders(ctx, userID, providers); err != nil {
		return fmt.Errorf("failed to update providers: %w", err)
	}
	return nil
}
