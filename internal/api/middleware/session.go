package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie carrying the caller's session
	SessionName = "tether_session"

	// SessionMaxAge is 7 days in seconds
	SessionMaxAge = 7 * 24 * 60 * 60

	// MinCookieSecretLength is the minimum session secret size in bytes
	MinCookieSecretLength = 32

	sessionUserID = "user_id"
)

var errBearerDisabled = errors.New("bearer tokens are not configured")

// NewCookieStore creates the signed cookie store backing sessions
func NewCookieStore(secret string, secure bool) (*sessions.CookieStore, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes for security", MinCookieSecretLength)
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// StartSession writes a session cookie for userID
func StartSession(store sessions.Store, w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := store.Get(r, SessionName)
	if err != nil {
		// A stale or tampered cookie; start over
		session, err = store.New(r, SessionName)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	session.Values[sessionUserID] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// EndSession expires the session cookie
func EndSession(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	session, err := store.Get(r, SessionName)
	if err != nil || session.IsNew {
		return nil
	}

	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
