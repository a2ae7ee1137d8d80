package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"corebank/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "session:jti:"
	actorKeyPrefix   = "session:actor:"
)

// RedisStore is a Redis-backed session store for deployments where multiple
// instances share session state. Native key TTLs garbage-collect idle
// sessions; the manager still enforces the sliding window from the
// last-activity field so both backends behave identically.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.TokenID, payload, ttl)
	actorKey := actorKeyPrefix + sess.ActorID.String()
	pipe.SAdd(ctx, actorKey, sess.TokenID)
	pipe.Expire(ctx, actorKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, tokenID string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, tokenID string, now time.Time, ttl time.Duration) error {
	key := sessionKeyPrefix + tokenID
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}
	sess.LastActivity = now

	payload, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, tokenID string) error {
	// Look up the actor membership first so the reverse index stays clean.
	if sess, err := s.Find(ctx, tokenID); err == nil {
		s.client.SRem(ctx, actorKeyPrefix+sess.ActorID.String(), tokenID)
	}
	return s.client.Del(ctx, sessionKeyPrefix+tokenID).Err()
}

func (s *RedisStore) DeleteByActor(ctx context.Context, actorID uuid.UUID) (int, error) {
	actorKey := actorKeyPrefix + actorID.String()
	tokenIDs, err := s.client.SMembers(ctx, actorKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("list actor sessions: %w", err)
	}
	if len(tokenIDs) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, tokenID := range tokenIDs {
		pipe.Del(ctx, sessionKeyPrefix+tokenID)
	}
	pipe.Del(ctx, actorKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete actor sessions: %w", err)
	}
	return len(tokenIDs), nil
}
