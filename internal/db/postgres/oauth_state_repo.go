package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Tether/internal/core/oauth"
)

// PostgresStateStore keeps OAuth state records in the oauth_states table.
// Rows past their ttl are never returned and are removed by DeleteExpired.
type PostgresStateStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewStateStore creates a new PostgreSQL OAuth state store
func NewStateStore(db *sql.DB) *PostgresStateStore {
	return &PostgresStateStore{db: db, now: time.Now}
}

// Create inserts a state record
func (s *PostgresStateStore) Create(ctx context.Context, rec *oauth.StateRecord) error {
	query := `
		INSERT INTO oauth_states (user_id, state, ttl)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	if err := s.db.QueryRowContext(ctx, query, rec.UserID, rec.State, rec.TTL).Scan(&rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}
	return nil
}

// ListByUserID returns the user's unexpired records matching state
func (s *PostgresStateStore) ListByUserID(ctx context.Context, userID, state string) ([]*oauth.StateRecord, error) {
	query := `
		SELECT user_id, state, ttl, created_at
		FROM oauth_states
		WHERE user_id = $1 AND state = $2 AND ttl > $3`

	rows, err := s.db.QueryContext(ctx, query, userID, state, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query oauth states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*oauth.StateRecord
	for rows.Next() {
		rec := &oauth.StateRecord{}
		if err := rows.Scan(&rec.UserID, &rec.State, &rec.TTL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan oauth state: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating oauth states: %w", err)
	}

	return records, nil
}

// Delete removes every record for the user with the given state
func (s *PostgresStateStore) Delete(ctx context.Context, userID, state string) error {
	query := `DELETE FROM oauth_states WHERE user_id = $1 AND state = $2`

	if _, err := s.db.ExecContext(ctx, query, userID, state); err != nil {
		return fmt.Errorf("failed to delete oauth state: %w", err)
	}
	return nil
}

// DeleteExpired removes records whose ttl has passed
// Called periodically by StateJanitor
func (s *PostgresStateStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_states WHERE ttl <= $1`

	result, err := s.db.ExecContext(ctx, query, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired oauth states: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
