package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	oauthhandlers "Tether/internal/api/handlers/oauth"
	"Tether/internal/api/middleware"
)

// RegisterOAuthRoutes registers the provider connection endpoints with dedicated rate limiting
// OAuth endpoints have stricter rate limits to prevent:
// - OAuth state exhaustion
// - Code replay against the callback
func RegisterOAuthRoutes(r chi.Router, service oauthhandlers.Service, auth *middleware.Authenticator, hostURL string, allowedOrigins []string, logger *slog.Logger) {
	// Authorize: 10 req/min per IP, each call persists a state record
	authorizeLimiter := middleware.NewRateLimiter(10, 1*time.Minute)

	// Callback: 20 req/min per IP
	callbackLimiter := middleware.NewRateLimiter(20, 1*time.Minute)

	authorizeHandler := oauthhandlers.NewAuthorizeHandler(service, logger)
	callbackHandler := oauthhandlers.NewCallbackHandler(service, hostURL, logger)
	disconnectHandler := oauthhandlers.NewDisconnectHandler(service, logger)

	// Provider redirect target - the browser arrives here without our credentials;
	// the state token carries the user
	r.With(corsMiddleware(allowedOrigins), callbackLimiter.Middleware).Get("/oauth/{provider}/callback", callbackHandler.HandleCallback)

	r.With(auth.RequireAuth, authorizeLimiter.Middleware).Post("/api/oauth/{provider}/authorize", authorizeHandler.HandleAuthorize)
	r.With(auth.RequireAuth).Post("/api/oauth/{provider}/disconnect", disconnectHandler.HandleDisconnect)
}

// corsMiddleware creates a CORS middleware for OAuth callback with specific allowed origins
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins, // Only allow specific origins for OAuth callback
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}
