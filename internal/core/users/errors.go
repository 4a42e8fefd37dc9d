package users

import (
	"errors"
	"fmt"
)

// Sentinel errors for common user operations
var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when creating a user whose id is taken
	ErrUserAlreadyExists = errors.New("user already exists")
)

// InvalidUserError is returned when a create request fails validation
type InvalidUserError struct {
	Field  string
	Reason string
}

func (e *InvalidUserError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
