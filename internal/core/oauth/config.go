package oauth

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"Tether/internal/core/users"
)

// DefaultRefreshTTL is the lifetime assigned to a refreshed access token
const DefaultRefreshTTL = time.Hour

// ProviderConfig holds the client registration and endpoints for one provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Scope is space separated, as sent on the wire
	Scope string

	AuthorizationURL string
	TokenURL         string
	RevocationURL    string

	// AccessibleResourcesURL lists the Atlassian sites a Jira token can reach
	AccessibleResourcesURL string
}

// oauth2Config converts to the x/oauth2 shape used for URL building
func (c ProviderConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       strings.Fields(c.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthorizationURL,
			TokenURL: c.TokenURL,
		},
	}
}

// Providers maps each provider to its client settings
type Providers map[users.Provider]ProviderConfig

// Options tunes the token lifecycle. The zero value gives the defaults.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder
	// Now overrides the clock in tests
	Now func() time.Time

	// StateTTL is how long an issued state stays valid. Zero means DefaultStateTTL.
	StateTTL time.Duration

	// RefreshTTL is the lifetime given to refreshed tokens. Zero means DefaultRefreshTTL.
	RefreshTTL time.Duration

	// TrustRefreshExpiresIn uses the provider's expires_in on refresh when present
	TrustRefreshExpiresIn bool

	// ConsumeState deletes the state record after a successful callback
	ConsumeState bool
}
