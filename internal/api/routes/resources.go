package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	calendarhandlers "Tether/internal/api/handlers/calendar"
	ticketshandlers "Tether/internal/api/handlers/tickets"
	"Tether/internal/api/middleware"
)

// RegisterResourceRoutes registers the provider data endpoints
func RegisterResourceRoutes(r chi.Router, events calendarhandlers.Service, tickets ticketshandlers.Service, auth *middleware.Authenticator, logger *slog.Logger) {
	eventsHandler := calendarhandlers.NewEventsHandler(events, logger)
	ticketsHandler := ticketshandlers.NewListHandler(tickets, logger)

	r.With(auth.RequireAuth).Get("/api/calendar/events", eventsHandler.HandleList)
	r.With(auth.RequireAuth).Get("/api/tickets", ticketsHandler.HandleList)
}
