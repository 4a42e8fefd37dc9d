package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	sessionhandlers "Tether/internal/api/handlers/session"
	"Tether/internal/api/handlers/user"
	"Tether/internal/api/middleware"
	"Tether/internal/core/users"
)

// RegisterUserRoutes registers account and browser session endpoints.
// Session endpoints are skipped when store is nil.
func RegisterUserRoutes(r chi.Router, service users.UserService, store sessions.Store, auth *middleware.Authenticator, logger *slog.Logger) {
	meHandler := user.NewMeHandler(service)

	r.With(auth.RequireAuth).Put("/api/users/me", meHandler.HandleRegister)
	r.With(auth.RequireAuth).Get("/api/users/me", meHandler.HandleGet)

	if store == nil {
		return
	}

	sessionHandler := sessionhandlers.NewHandler(store, logger)
	r.With(auth.RequireAuth).Post("/api/session", sessionHandler.HandleStart)
	r.Delete("/api/session", sessionHandler.HandleEnd)
}
