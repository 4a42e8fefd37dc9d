package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"Tether/internal/api/handlers"
	"Tether/internal/core/users"
)

// handleServiceError maps user service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error, userID string) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		handlers.WriteError(w, http.StatusNotFound, "AccountNotFound", "Account not found")

	case errors.Is(err, users.ErrUserAlreadyExists):
		handlers.WriteError(w, http.StatusConflict, "AccountExists", "Account already exists")

	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("user request timed out",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		handlers.WriteError(w, http.StatusGatewayTimeout, "Timeout", "Request timed out")

	case errors.Is(err, context.Canceled):
		handlers.WriteError(w, http.StatusBadRequest, "RequestCanceled", "Request was canceled")

	default:
		var invalid *users.InvalidUserError
		if errors.As(err, &invalid) {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", invalid.Error())
			return
		}

		// Internal server error - don't leak details
		slog.Error("user request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
