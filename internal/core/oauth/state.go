package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"Tether/internal/core/users"
)

const (
	// stateDelimiter joins the three parts of the wire state
	stateDelimiter = "::"

	// DefaultStateTTL is how long an issued state stays redeemable
	DefaultStateTTL = 300 * time.Second

	nonceBytes = 32
)

// StateToken is the parsed form of the state parameter.
// The joined string only exists on the wire; see String and ParseState.
type StateToken struct {
	Nonce    string
	UserID   string
	Provider users.Provider
}

// String renders the token as <nonce>::<userId>::<provider>
func (t StateToken) String() string {
	return t.Nonce + stateDelimiter + t.UserID + stateDelimiter + string(t.Provider)
}

// GenerateState creates a new state token for the user and provider along with
// its absolute expiry in unix seconds.
func GenerateState(userID string, provider users.Provider, now time.Time, ttl time.Duration) (StateToken, int64, error) {
	if userID == "" || strings.Contains(userID, stateDelimiter) {
		return StateToken{}, 0, ErrInvalidUserID
	}
	if _, err := users.ParseProvider(string(provider)); err != nil {
		return StateToken{}, 0, err
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	nonce, err := generateNonce()
	if err != nil {
		return StateToken{}, 0, err
	}

	token := StateToken{Nonce: nonce, UserID: userID, Provider: provider}
	return token, now.Add(ttl).Unix(), nil
}

// ParseState splits a raw state string. It only checks shape: fewer than three
// parts is ErrMalformedState. The provider segment is returned unchecked in
// raw so callers can report it separately.
func ParseState(raw string) (nonce, userID, provider string, err error) {
	parts := strings.Split(raw, stateDelimiter)
	if len(parts) < 3 {
		return "", "", "", ErrMalformedState
	}
	return parts[0], parts[1], parts[2], nil
}

// generateNonce returns 32 random bytes encoded as base64url without padding.
// The alphabet has no ':' so the nonce can never collide with the delimiter.
func generateNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
