package users

import "context"

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// UpdateProviders replaces the user's whole provider map.
	// Callers are expected to read, merge their single-provider change into a
	// Clone of the current map and write the result back, so sibling providers
	// survive the write. Returns ErrUserNotFound when no row matches.
	UpdateProviders(ctx context.Context, id string, providers Providers) error
}

// UserService defines the interface for user business logic
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}
