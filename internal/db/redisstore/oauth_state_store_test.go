package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tether/internal/core/oauth"
)

var baseTime = time.Unix(1_700_000_000, 0)

// setupTestStore creates a miniredis server and a store whose clock is *now
func setupTestStore(t *testing.T, now *time.Time) (*miniredis.Miniredis, *StateStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)
	mr.SetTime(*now)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStateStore(client)
	store.now = func() time.Time { return *now }
	return mr, store
}

func TestStateStore_CreateAndList(t *testing.T) {
	now := baseTime
	mr, store := setupTestStore(t, &now)
	ctx := context.Background()

	rec := &oauth.StateRecord{UserID: "u1", State: "n1::u1::google", TTL: now.Unix() + 300}
	require.NoError(t, store.Create(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	assert.True(t, mr.Exists("oauth_state:u1"))
	assert.Equal(t, 300*time.Second, mr.TTL("oauth_state:u1"))
	members, err := mr.ZMembers("oauth_state:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1::u1::google"}, members)

	records, err := store.ListByUserID(ctx, "u1", "n1::u1::google")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, &oauth.StateRecord{UserID: "u1", State: "n1::u1::google", TTL: now.Unix() + 300}, records[0])

	records, err = store.ListByUserID(ctx, "u1", "other::u1::google")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = store.ListByUserID(ctx, "u2", "n1::u1::google")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStateStore_ExpiredRecordsAreHiddenAndPruned(t *testing.T) {
	now := baseTime
	mr, store := setupTestStore(t, &now)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &oauth.StateRecord{UserID: "u1", State: "old", TTL: now.Unix() + 300}))

	now = now.Add(301 * time.Second)
	records, err := store.ListByUserID(ctx, "u1", "old")
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, store.Create(ctx, &oauth.StateRecord{UserID: "u1", State: "new", TTL: now.Unix() + 300}))
	members, err := mr.ZMembers("oauth_state:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, members)
}

func TestStateStore_Delete(t *testing.T) {
	now := baseTime
	_, store := setupTestStore(t, &now)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &oauth.StateRecord{UserID: "u1", State: "s1", TTL: now.Unix() + 300}))
	require.NoError(t, store.Create(ctx, &oauth.StateRecord{UserID: "u1", State: "s2", TTL: now.Unix() + 300}))

	require.NoError(t, store.Delete(ctx, "u1", "s1"))

	records, err := store.ListByUserID(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = store.ListByUserID(ctx, "u1", "s2")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStateStore_ConnectionFailure(t *testing.T) {
	now := baseTime
	mr, store := setupTestStore(t, &now)
	mr.Close()

	_, err := store.ListByUserID(context.Background(), "u1", "s1")
	assert.Error(t, err)
}
