package oauth

import (
	"log/slog"
	"net/http"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
)

// DisconnectHandler revokes and clears a provider connection
type DisconnectHandler struct {
	service Service
	logger  *slog.Logger
}

// NewDisconnectHandler creates a new disconnect handler
func NewDisconnectHandler(service Service, logger *slog.Logger) *DisconnectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DisconnectHandler{service: service, logger: logger}
}

// HandleDisconnect disconnects the caller's provider
// POST /api/oauth/{provider}/disconnect
//
// The outcome is reported in the body; "nothing to disconnect" is still a 200.
func (h *DisconnectHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	provider, ok := parseProvider(w, r)
	if !ok {
		return
	}

	result, err := h.service.Disconnect(r.Context(), userID, provider)
	if err != nil {
		h.logger.Error("failed to disconnect provider",
			slog.String("user_id", userID),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to disconnect")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, result)
}
