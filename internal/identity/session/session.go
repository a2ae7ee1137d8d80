package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record that an identity has authenticated and
// remains recently active. It is keyed by the session token's jti so multiple
// concurrent sessions per actor are supported.
type Session struct {
	TokenID      string    `json:"token_id"`
	ActorID      uuid.UUID `json:"actor_id"`
	ActorType    string    `json:"actor_type"`
	Role         string    `json:"role"`
	DeviceName   string    `json:"device_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Store persists session records. Implementations must be safe for concurrent
// use; Find returns sentinel.ErrNotFound for absent or garbage-collected
// records.
type Store interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Find(ctx context.Context, tokenID string) (*Session, error)
	// Touch refreshes the last-activity timestamp (and TTL where the backend
	// supports native expiry).
	Touch(ctx context.Context, tokenID string, now time.Time, ttl time.Duration) error
	// Delete removes a session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, tokenID string) error
	// DeleteByActor removes every session belonging to an actor and returns
	// how many were removed.
	DeleteByActor(ctx context.Context, actorID uuid.UUID) (int, error)
}
