package users

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// idDelimiter may not appear in user ids: it separates the parts of an OAuth state token
const idDelimiter = "::"

type userService struct {
	userRepo UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

// CreateUser creates a new user with an empty provider map
func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	user := &User{
		ID:        req.ID,
		Email:     req.Email,
		Providers: Providers{},
	}

	// Repository will handle duplicate constraint errors
	return s.userRepo.Create(ctx, user)
}

// GetUser retrieves a user by id
func (s *userService) GetUser(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &InvalidUserError{Field: "id", Reason: "required"}
	}

	return s.userRepo.GetByID(ctx, id)
}

func validateCreateRequest(req CreateUserRequest) error {
	if req.Email == "" {
		return &InvalidUserError{Field: "email", Reason: "required"}
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return &InvalidUserError{Field: "email", Reason: "not a valid address"}
	}

	if strings.Contains(req.ID, idDelimiter) {
		return &InvalidUserError{Field: "id", Reason: "must not contain \"::\""}
	}

	return nil
}
