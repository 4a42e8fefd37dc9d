package oauth

import (
	"fmt"

	"golang.org/x/oauth2"

	"Tether/internal/core/users"
)

const atlassianAudience = "api.atlassian.com"

// BuildAuthorizationURL returns the provider consent URL carrying state.
// response_type, client_id, redirect_uri and scope are always present; the
// remaining parameters depend on the provider.
func BuildAuthorizationURL(provider users.Provider, cfg ProviderConfig, state StateToken) (string, error) {
	var opts []oauth2.AuthCodeOption

	switch provider {
	case users.ProviderGoogle:
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	case users.ProviderJira:
		opts = append(opts, oauth2.SetAuthURLParam("audience", atlassianAudience), oauth2.ApprovalForce)
	default:
		return "", &users.UnsupportedProviderError{Name: string(provider)}
	}

	if cfg.AuthorizationURL == "" {
		return "", fmt.Errorf("%w: %s has no authorization endpoint", ErrProviderNotConfigured, provider)
	}

	return cfg.oauth2Config().AuthCodeURL(state.String(), opts...), nil
}
