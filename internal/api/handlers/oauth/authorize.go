package oauth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
)

// AuthorizeHandler issues provider consent URLs
type AuthorizeHandler struct {
	service Service
	logger  *slog.Logger
}

// NewAuthorizeHandler creates a new authorize handler
func NewAuthorizeHandler(service Service, logger *slog.Logger) *AuthorizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizeHandler{service: service, logger: logger}
}

// HandleAuthorize returns a consent URL bound to a fresh state
// POST /api/oauth/{provider}/authorize
func (h *AuthorizeHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	provider, ok := parseProvider(w, r)
	if !ok {
		return
	}

	authURL, err := h.service.GenerateAuthorizationURL(r.Context(), userID, provider)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidUserID):
			handlers.WriteError(w, http.StatusBadRequest, "InvalidUser", "User id cannot be used for authorization")
		case errors.Is(err, oauth.ErrProviderNotConfigured):
			handlers.WriteError(w, http.StatusNotFound, "ProviderNotConfigured", provider.String()+" is not configured")
		default:
			h.logger.Error("failed to generate authorization url",
				slog.String("user_id", userID),
				slog.String("provider", provider.String()),
				slog.String("error", err.Error()))
			handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to start authorization")
		}
		return
	}

	handlers.WriteJSON(w, http.StatusOK, AuthorizeResponse{AuthorizationURL: authURL})
}

// parseProvider reads {provider} from the route, writing a 400 when unsupported
func parseProvider(w http.ResponseWriter, r *http.Request) (users.Provider, bool) {
	raw := chi.URLParam(r, "provider")
	provider, err := users.ParseProvider(raw)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "UnsupportedProvider", "Unsupported provider: "+raw)
		return "", false
	}
	return provider, true
}
