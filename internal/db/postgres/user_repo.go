package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Tether/internal/core/users"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

// Create inserts a new user into the users table
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	providers, err := marshalProviders(user.Providers)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, email, providers)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query, user.ID, user.Email, providers).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, users.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.Providers == nil {
		user.Providers = users.Providers{}
	}
	return user, nil
}

// GetByID retrieves a user by id
func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	user := &users.User{}
	query := `SELECT id, email, providers, created_at, updated_at FROM users WHERE id = $1`

	var providers []byte
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Email, &providers, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	user.Providers = users.Providers{}
	if len(providers) > 0 {
		if err := json.Unmarshal(providers, &user.Providers); err != nil {
			return nil, fmt.Errorf("failed to decode providers for user %s: %w", id, err)
		}
	}

	return user, nil
}

// UpdateProviders overwrites the providers document for a user
func (r *postgresUserRepo) UpdateProviders(ctx context.Context, id string, providers users.Providers) error {
	doc, err := marshalProviders(providers)
	if err != nil {
		return err
	}

	query := `UPDATE users SET providers = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, doc)
	if err != nil {
		return fmt.Errorf("failed to update providers: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return users.ErrUserNotFound
	}

	return nil
}

func marshalProviders(providers users.Providers) ([]byte, error) {
	if providers == nil {
		providers = users.Providers{}
	}
	doc, err := json.Marshal(providers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode providers: %w", err)
	}
	return doc, nil
}
