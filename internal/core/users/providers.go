package users

import (
	"fmt"
)

// Provider identifies a third-party account type a user can connect.
// The set is closed; use ParseProvider at every boundary.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderJira   Provider = "jira"
)

// AllProviders lists every supported provider in a stable order
var AllProviders = []Provider{ProviderGoogle, ProviderJira}

// ParseProvider converts a raw provider name into a Provider
func ParseProvider(raw string) (Provider, error) {
	switch Provider(raw) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderJira:
		return ProviderJira, nil
	default:
		return "", &UnsupportedProviderError{Name: raw}
	}
}

func (p Provider) String() string {
	return string(p)
}

// TokenRecord is the stored OAuth token set for one provider.
// ExpiresAt is absolute unix-epoch seconds.
type TokenRecord struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// Connection is everything stored for one provider under a user.
// CloudID is Jira only: the Atlassian site the tokens address.
type Connection struct {
	OAuth   *TokenRecord `json:"oauth"`
	CloudID string       `json:"cloudId,omitempty"`
}

// Providers maps a provider to its connection. A nil entry (or a missing key)
// means the provider is disconnected.
type Providers map[Provider]*Connection

// Clone returns a shallow copy of the map so a single entry can be replaced
// without touching the caller's view of sibling providers.
func (p Providers) Clone() Providers {
	out := make(Providers, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns the connection for a provider, or nil
func (p Providers) Get(provider Provider) *Connection {
	if p == nil {
		return nil
	}
	return p[provider]
}

// Tokens returns the stored token record for a provider, or nil
func (p Providers) Tokens(provider Provider) *TokenRecord {
	conn := p.Get(provider)
	if conn == nil {
		return nil
	}
	return conn.OAuth
}

// IsConnected reports whether an access token is stored for the provider
func (p Providers) IsConnected(provider Provider) bool {
	tokens := p.Tokens(provider)
	return tokens != nil && tokens.AccessToken != ""
}

// UnsupportedProviderError is returned for provider names outside the closed set
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Name)
}
