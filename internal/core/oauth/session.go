package oauth

import (
	"time"
)

// StateRecord is one issued authorization attempt.
// Several may exist per user; the store drops each one once TTL has passed.
type StateRecord struct {
	CreatedAt time.Time `db:"created_at"`
	UserID    string    `db:"user_id"`
	State     string    `db:"state"` // wire form: <nonce>::<userId>::<provider>
	TTL       int64     `db:"ttl"`   // absolute unix seconds
}

// TokenResponse is the JSON body returned by a provider token endpoint
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	Scope            string `json:"scope,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
}

// DisconnectResult is returned by Disconnect
type DisconnectResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}
