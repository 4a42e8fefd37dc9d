package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
	"Tether/internal/db/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL and runs migrations.
// Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, migrations.Up(db), "Failed to run migrations")

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func cleanupUser(t *testing.T, db *sql.DB, id string) {
	_, err := db.Exec("DELETE FROM oauth_states WHERE user_id = $1", id)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM users WHERE id = $1", id)
	require.NoError(t, err)
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	id := "test-user-create"
	cleanupUser(t, db, id)
	defer cleanupUser(t, db, id)

	created, err := repo.Create(ctx, &users.User{ID: id, Email: "create@example.com"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "create@example.com", got.Email)
	assert.NotNil(t, got.Providers)
	assert.Empty(t, got.Providers)

	_, err = repo.Create(ctx, &users.User{ID: id, Email: "dup@example.com"})
	assert.ErrorIs(t, err, users.ErrUserAlreadyExists)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestUserRepo_UpdateProviders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	id := "test-user-providers"
	cleanupUser(t, db, id)
	defer cleanupUser(t, db, id)

	_, err := repo.Create(ctx, &users.User{ID: id, Email: "p@example.com"})
	require.NoError(t, err)

	providers := users.Providers{
		users.ProviderGoogle: {OAuth: &users.TokenRecord{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1700000000}},
		users.ProviderJira:   nil,
	}
	require.NoError(t, repo.UpdateProviders(ctx, id, providers))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, providers, got.Providers)

	err = repo.UpdateProviders(ctx, "does-not-exist", providers)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestStateStore_ExpiryAndLookup(t *testing.T) {
	db := setupTestDB(t)
	store := NewStateStore(db)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	userID := "test-user-states"
	cleanupUser(t, db, userID)
	defer cleanupUser(t, db, userID)

	live := &oauth.StateRecord{UserID: userID, State: "n1::" + userID + "::google", TTL: now.Unix() + 300}
	expired := &oauth.StateRecord{UserID: userID, State: "n2::" + userID + "::google", TTL: now.Unix() - 1}
	require.NoError(t, store.Create(ctx, live))
	require.NoError(t, store.Create(ctx, expired))

	records, err := store.ListByUserID(ctx, userID, live.State)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, live.TTL, records[0].TTL)

	records, err = store.ListByUserID(ctx, userID, expired.State)
	require.NoError(t, err)
	assert.Empty(t, records)

	deleted, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	require.NoError(t, store.Delete(ctx, userID, live.State))
	records, err = store.ListByUserID(ctx, userID, live.State)
	require.NoError(t, err)
	assert.Empty(t, records)
}
