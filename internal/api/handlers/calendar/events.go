package calendar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
	"Tether/internal/core/calendar"
	"Tether/internal/core/users"
)

// Service lists calendar events for a user
type Service interface {
	ListEvents(ctx context.Context, userID, timeMin, timeMax string) (*calendar.EventsResult, error)
}

// EventsHandler serves the caller's Google Calendar events
type EventsHandler struct {
	service Service
	logger  *slog.Logger
}

// NewEventsHandler creates a new calendar events handler
func NewEventsHandler(service Service, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{service: service, logger: logger}
}

// HandleList returns events in [timeMin, timeMax)
// GET /api/calendar/events?timeMin=<RFC3339>&timeMax=<RFC3339>
//
// Provider and token failures are a 200 with a populated "error" field.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	query := r.URL.Query()
	timeMin, timeMax := query.Get("timeMin"), query.Get("timeMax")
	for name, value := range map[string]string{"timeMin": timeMin, "timeMax": timeMax} {
		if value == "" {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", name+" is required")
			return
		}
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", name+" must be an RFC 3339 timestamp")
			return
		}
	}

	result, err := h.service.ListEvents(r.Context(), userID, timeMin, timeMax)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			handlers.WriteError(w, http.StatusNotFound, "AccountNotFound", "Account not found")
			return
		}
		h.logger.Error("failed to list calendar events",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, result)
}
