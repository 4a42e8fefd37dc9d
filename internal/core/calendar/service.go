package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
)

// DefaultBaseURL is the Google Calendar v3 API root
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

const (
	msgNoItems      = "No calendar items found in response"
	msgListFailed   = "Error listing Google Calendar events"
	maxResponseSize = 10 * 1024 * 1024
)

// TokenSource resolves a usable access token for a user's provider
type TokenSource interface {
	GetValidAccessToken(ctx context.Context, userID string, provider users.Provider) (string, error)
}

// UserReader loads users
type UserReader interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Service lists a user's Google Calendar events
type Service struct {
	users   UserReader
	tokens  TokenSource
	client  oauth.HTTPClient
	logger  *slog.Logger
	baseURL string
}

// NewService creates a calendar service. An empty baseURL means DefaultBaseURL.
func NewService(userReader UserReader, tokens TokenSource, client oauth.HTTPClient, baseURL string, logger *slog.Logger) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   userReader,
		tokens:  tokens,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ListEvents returns the user's primary-calendar events between timeMin and
// timeMax (RFC 3339, passed through as given).
//
// Token and provider problems come back inside the result; the returned
// error is reserved for a missing user or a store failure.
func (s *Service) ListEvents(ctx context.Context, userID, timeMin, timeMax string) (*EventsResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GetValidAccessToken(ctx, user.ID, users.ProviderGoogle)
	if err != nil {
		if oauth.IsTokenError(err) {
			return failed(err.Error()), nil
		}
		return nil, err
	}

	query := url.Values{}
	query.Set("timeMin", timeMin)
	query.Set("timeMax", timeMax)
	endpoint := s.baseURL + "/calendars/primary/events?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("calendar request failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		s.logger.Error("failed to read calendar response", slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("google calendar api error",
			slog.String("user_id", userID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return failed(fmt.Sprintf("Google Calendar API error: %d", resp.StatusCode)), nil
	}

	events, err := ParseEventsResponse(body)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) && parseErr.Field == "items" {
			s.logger.Warn("calendar response has no items", slog.String("user_id", userID))
			return failed(msgNoItems), nil
		}
		s.logger.Error("failed to parse calendar response", slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}

	return &EventsResult{Events: events}, nil
}

func failed(msg string) *EventsResult {
	return &EventsResult{Error: &msg}
}
