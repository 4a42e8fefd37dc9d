package user

import (
	"encoding/json"
	"net/http"
	"time"

	"Tether/internal/api/handlers"
	"Tether/internal/api/middleware"
	"Tether/internal/core/users"
)

// maxRegisterBodySize bounds the PUT /api/users/me body
const maxRegisterBodySize = 4 << 10

// MeHandler serves the caller's own account
type MeHandler struct {
	userService users.UserService
}

// NewMeHandler creates a new account handler
func NewMeHandler(userService users.UserService) *MeHandler {
	return &MeHandler{
		userService: userService,
	}
}

// RegisterRequest is the body of PUT /api/users/me
type RegisterRequest struct {
	Email       string                  `json:"email"`
}

// AccountView is the public shape of an account.
// Tokens never leave the server; only the connected flag per provider does.
type AccountView struct {
	CreatedAt   time.Time               `json:"createdAt"`
	Connections map[users.Provider]bool `json:"connections"`
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
}

func newAccountView(u *users.User) AccountView {
	connections := make(map[users.Provider]bool, len(users.AllProviders))
	for _, p := range users.AllProviders {
		connections[p] = u.Providers.IsConnected(p)
	}
	return AccountView{
		ID:          u.ID,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		Connections: connections,
	}
}

// HandleRegister creates the caller's account row
// PUT /api/users/me
//
// The id comes from the authenticated identity, never the body.
func (h *MeHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegisterBodySize)).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), users.CreateUserRequest{ID: userID, Email: req.Email})
	if err != nil {
		handleServiceError(w, err, userID)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, newAccountView(user))
}

// HandleGet returns the caller's account with per-provider connection flags
// GET /api/users/me
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, userID)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, newAccountView(user))
}
