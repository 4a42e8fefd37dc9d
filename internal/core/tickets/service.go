package tickets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
)

const (
	// DefaultBaseURL is the Atlassian cloud API gateway
	DefaultBaseURL = "https://api.atlassian.com"

	DefaultMaxResults = 50
	maxMaxResults     = 100

	msgNoIssues     = "No issues found in response"
	msgNoSite       = "No Jira site linked to account"
	msgListFailed   = "Error listing Jira tickets"
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

// Service lists Jira issues the user is assigned to or reported
type Service struct {
	users   UserReader
	tokens  TokenSource
	client  oauth.HTTPClient
	logger  *slog.Logger
	baseURL string
}

// NewService creates a tickets service. An empty baseURL means DefaultBaseURL.
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

// BuildJQL returns the query for issues assigned to or reported by email,
// most recently updated first.
func BuildJQL(email string) string {
	quoted := strconv.Quote(email)
	return fmt.Sprintf("assignee=%s OR reporter=%s ORDER BY updated DESC", quoted, quoted)
}

// ListTickets returns up to maxResults issues for the user's linked Jira site.
// maxResults <= 0 means DefaultMaxResults; values above 100 are capped.
//
// Token and provider problems come back inside the result; the returned
// error is reserved for a missing user or a store failure.
func (s *Service) ListTickets(ctx context.Context, userID string, maxResults int) (*TicketsResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GetValidAccessToken(ctx, user.ID, users.ProviderJira)
	if err != nil {
		if oauth.IsTokenError(err) {
			return failed(err.Error()), nil
		}
		return nil, err
	}

	conn := user.Providers.Get(users.ProviderJira)
	if conn == nil || conn.CloudID == "" {
		return failed(msgNoSite), nil
	}

	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	query := url.Values{}
	query.Set("jql", BuildJQL(user.Email))
	query.Set("maxResults", strconv.Itoa(maxResults))
	endpoint := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/search?%s", s.baseURL, url.PathEscape(conn.CloudID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("jira request failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		s.logger.Error("failed to read jira response", slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("jira api error",
			slog.String("user_id", userID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return failed(fmt.Sprintf("Jira API error: %d", resp.StatusCode)), nil
	}

	tickets, err := ParseSearchResponse(body)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) && parseErr.Field == "issues" {
			s.logger.Warn("jira response has no issues", slog.String("user_id", userID))
			return failed(msgNoIssues), nil
		}
		s.logger.Error("failed to parse jira response", slog.String("error", err.Error()))
		return failed(msgListFailed), nil
	}

	return &TicketsResult{Tickets: tickets}, nil
}

func failed(msg string) *TicketsResult {
	return &TicketsResult{Error: &msg}
}
