package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-identity-secret-at-least-32-bytes")

const testSessionSecret = "0123456789abcdef0123456789abcdef"

// createTestToken signs an HS256 token for subject with the given expiry offset
func createTestToken(t *testing.T, key []byte, subject string, expiresIn time.Duration) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Issuer("https://identity.test").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(expiresIn))
	if subject != "" {
		builder = builder.Subject(subject)
	}
	tok, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, key))
	require.NoError(t, err)
	return string(signed)
}

func captureUser(t *testing.T, called *bool, wantUser, wantMethod string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		assert.Equal(t, wantUser, GetUserID(r))
		assert.Equal(t, wantMethod, GetAuthMethod(r))
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidBearer(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil, nil)

	called := false
	handler := auth.RequireAuth(captureUser(t, &called, "u1", AuthMethodBearer))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, "u1", time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RejectsBadBearer(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{name: "wrong scheme", header: func(t *testing.T) string { return "Basic abc" }},
		{name: "garbage", header: func(t *testing.T) string { return "Bearer not-a-jwt" }},
		{name: "expired", header: func(t *testing.T) string {
			return "Bearer " + createTestToken(t, testSecret, "u1", -time.Hour)
		}},
		{name: "wrong key", header: func(t *testing.T) string {
			return "Bearer " + createTestToken(t, []byte("another-secret-that-is-long-enough!!"), "u1", time.Hour)
		}},
		{name: "no subject", header: func(t *testing.T) string {
			return "Bearer " + createTestToken(t, testSecret, "", time.Hour)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthenticator(testSecret, nil, nil)
			called := false
			handler := auth.RequireAuth(captureUser(t, &called, "", ""))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.header(t))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "AuthenticationRequired")
		})
	}
}

func TestRequireAuth_BearerDisabled(t *testing.T) {
	auth := NewAuthenticator(nil, nil, nil)
	called := false
	handler := auth.RequireAuth(captureUser(t, &called, "", ""))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, "u1", time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Session(t *testing.T) {
	store, err := NewCookieStore(testSessionSecret, false)
	require.NoError(t, err)
	auth := NewAuthenticator(testSecret, store, nil)

	// issue the cookie
	w := httptest.NewRecorder()
	require.NoError(t, StartSession(store, w, httptest.NewRequest(http.MethodPost, "/api/session", nil), "u1"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	called := false
	handler := auth.RequireAuth(captureUser(t, &called, "u1", AuthMethodSession))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_TamperedSession(t *testing.T) {
	store, err := NewCookieStore(testSessionSecret, false)
	require.NoError(t, err)
	auth := NewAuthenticator(testSecret, store, nil)

	called := false
	handler := auth.RequireAuth(captureUser(t, &called, "", ""))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "forged"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEndSession(t *testing.T) {
	store, err := NewCookieStore(testSessionSecret, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, StartSession(store, w, httptest.NewRequest(http.MethodPost, "/", nil), "u1"))
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	require.NoError(t, EndSession(store, w, req))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestNewCookieStore_ShortSecret(t *testing.T) {
	_, err := NewCookieStore("short", false)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "32 bytes"))
}

func TestSetTestUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTestUserID(req.Context(), "u9"))
	assert.Equal(t, "u9", GetUserID(req))
}
