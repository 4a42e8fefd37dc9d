package tickets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
	"Tether/internal/core/tickets"
	"Tether/internal/core/users"
)

// Service lists Jira tickets for a user
type Service interface {
	ListTickets(ctx context.Context, userID string, maxResults int) (*tickets.TicketsResult, error)
}

// ListHandler serves the caller's assigned and reported Jira tickets
type ListHandler struct {
	service Service
	logger  *slog.Logger
}

// NewListHandler creates a new tickets handler
func NewListHandler(service Service, logger *slog.Logger) *ListHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListHandler{service: service, logger: logger}
}

// HandleList returns the caller's tickets, most recently updated first
// GET /api/tickets?maxResults=<n>
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	maxResults := 0
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "maxResults must be a positive integer")
			return
		}
		maxResults = n
	}

	result, err := h.service.ListTickets(r.Context(), userID, maxResults)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			handlers.WriteError(w, http.StatusNotFound, "AccountNotFound", "Account not found")
			return
		}
		h.logger.Error("failed to list tickets",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, result)
}
