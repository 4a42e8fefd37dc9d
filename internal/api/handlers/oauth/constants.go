package oauth

import (
	"context"

	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
)

// Service is the slice of the OAuth core the handlers drive
type Service interface {
	GenerateAuthorizationURL(ctx context.Context, userID string, provider users.Provider) (string, error)
	HandleCallback(ctx context.Context, provider users.Provider, code, state string) error
	Disconnect(ctx context.Context, userID string, provider users.Provider) (*oauth.DisconnectResult, error)
}

// AuthorizeResponse is the body of a successful authorize call
type AuthorizeResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
}
