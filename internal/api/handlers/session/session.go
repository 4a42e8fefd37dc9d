package session

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
)

// Handler trades a verified bearer identity for a browser session cookie.
// The consent redirect lands on the frontend, which then calls the API with
// the cookie instead of holding a token in script.
type Handler struct {
	store  sessions.Store
	logger *slog.Logger
}

// NewHandler creates a new session handler
func NewHandler(store sessions.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// HandleStart writes the session cookie for the authenticated caller
// POST /api/session
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	if err := middleware.StartSession(h.store, w, r, userID); err != nil {
		h.logger.Error("failed to start session",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to start session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleEnd expires the session cookie
// DELETE /api/session
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := middleware.EndSession(h.store, w, r); err != nil {
		h.logger.Warn("failed to end session", slog.String("error", err.Error()))
	}
	w.WriteHeader(http.StatusNoContent)
}
