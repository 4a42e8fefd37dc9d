package users

import (
	"time"
)

// User is an account in Tether. Identity is established elsewhere; this record
// only carries what the connection flows need: the email used for provider
// queries and the per-provider OAuth connections.
type User struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Providers Providers `json:"providers" db:"providers"`
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
}

// CreateUserRequest represents the input for creating a new user
type CreateUserRequest struct {
	ID    string `json:"id,omitempty"` // Optional; a UUID is generated when empty
	Email string `json:"email"`
}
