// Package redisstore stores OAuth state records in Redis sorted sets.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"Tether/internal/core/oauth"
)

const keyPrefix = "oauth_state:"

// StateStore keeps one sorted set per user: members are state strings and
// scores are their absolute ttl. Expired members are hidden on read, pruned
// on write, and the whole key expires with its newest member.
type StateStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewStateStore creates a Redis-backed state store
func NewStateStore(client redis.Cmdable) *StateStore {
	return &StateStore{client: client, now: time.Now}
}

func stateKey(userID string) string {
	return keyPrefix + userID
}

// Create adds a state record and pushes the key expiry out to the newest ttl
func (s *StateStore) Create(ctx context.Context, rec *oauth.StateRecord) error {
	key := stateKey(rec.UserID)
	nowUnix := s.now().Unix()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(nowUnix, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(rec.TTL), Member: rec.State})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}

	newest, err := s.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to read oauth state expiry: %w", err)
	}
	if len(newest) > 0 {
		if err := s.client.ExpireAt(ctx, key, time.Unix(int64(newest[0].Score), 0)).Err(); err != nil {
			return fmt.Errorf("failed to set oauth state expiry: %w", err)
		}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	return nil
}

// ListByUserID returns the matching record when it exists and has not expired
func (s *StateStore) ListByUserID(ctx context.Context, userID, state string) ([]*oauth.StateRecord, error) {
	score, err := s.client.ZScore(ctx, stateKey(userID), state).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query oauth state: %w", err)
	}

	ttl := int64(score)
	if ttl <= s.now().Unix() {
		return nil, nil
	}

	return []*oauth.StateRecord{{UserID: userID, State: state, TTL: ttl}}, nil
}

// Delete removes a state record
func (s *StateStore) Delete(ctx context.Context, userID, state string) error {
	if err := s.client.ZRem(ctx, stateKey(userID), state).Err(); err != nil {
		return fmt.Errorf("failed to delete oauth state: %w", err)
	}
	return nil
}
