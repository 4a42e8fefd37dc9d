package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Context keys for storing caller information
type contextKey string

const (
	UserIDKey     contextKey = "user_id"
	AuthMethodKey contextKey = "auth_method"
)

const (
	AuthMethodBearer  = "bearer"
	AuthMethodSession = "session"
)

// clockSkew tolerated on exp/nbf/iat
const clockSkew = 30 * time.Second

// Authenticator resolves the caller's user id from either an HS256 bearer
// token issued by the identity provider or a signed session cookie.
type Authenticator struct {
	sessions  sessions.Store
	logger    *slog.Logger
	jwtSecret []byte
}

// NewAuthenticator creates an authenticator.
// An empty jwtSecret disables bearer tokens; a nil store disables cookies.
func NewAuthenticator(jwtSecret []byte, store sessions.Store, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{jwtSecret: jwtSecret, sessions: store, logger: logger}
}

// RequireAuth ensures the caller is authenticated.
// If not, returns 401; otherwise the user id is placed in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
				return
			}

			userID, err := a.verifyBearer(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
			if err != nil {
				a.logger.Warn("auth failure",
					slog.String("type", "bearer"),
					slog.String("ip", getClientIP(r)),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeAuthError(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, AuthMethodBearer)))
			return
		}

		if userID := a.sessionUser(r); userID != "" {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, AuthMethodSession)))
			return
		}

		writeAuthError(w, "Missing Authorization header")
	})
}

func (a *Authenticator) verifyBearer(token string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errBearerDisabled
	}

	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, a.jwtSecret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(clockSkew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
	)
	if err != nil {
		return "", err
	}
	return parsed.Subject(), nil
}

func (a *Authenticator) sessionUser(r *http.Request) string {
	if a.sessions == nil {
		return ""
	}
	session, err := a.sessions.Get(r, SessionName)
	if err != nil || session.IsNew {
		return ""
	}
	userID, _ := session.Values[sessionUserID].(string)
	return userID
}

func withUser(ctx context.Context, userID, method string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, AuthMethodKey, method)
}

// GetUserID extracts the caller's user id from the request context
// Returns empty string if not authenticated
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

// GetAuthMethod reports how the caller authenticated
func GetAuthMethod(r *http.Request) string {
	method, _ := r.Context().Value(AuthMethodKey).(string)
	return method
}

// SetTestUserID sets the user id in the context for testing purposes
// This function should ONLY be used in tests to mock authenticated users
func SetTestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "AuthenticationRequired",
		"message": message,
	}); err != nil {
		slog.Error("failed to write auth error response", slog.String("error", err.Error()))
	}
}
