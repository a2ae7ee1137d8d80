// Package lockout throttles repeated failed logins. After too many failures
// inside the sliding window the username is locked for a fixed duration,
// regardless of whether it exists, so the lock cannot be used to probe for
// valid usernames.
package lockout

import (
	"context"
	"time"

	dErrors "corebank/pkg/domain-errors"
)

// Record tracks failed-login state for one username.
type Record struct {
	Username      string     `json:"username"`
	FailureCount  int        `json:"failure_count"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

// IsLockedAt reports whether the record is hard-locked at the given instant.
func (r *Record) IsLockedAt(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Store persists lockout records. Get returns (nil, nil) for an unknown
// username; callers treat that as a zero-valued record.
type Store interface {
	Get(ctx context.Context, username string) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
	Clear(ctx context.Context, username string) error
}

// Policy sets the failure budget and lock duration.
type Policy struct {
	// MaxFailures is the number of consecutive failures tolerated inside
	// the window before the username locks.
	MaxFailures int
	// Window is how far back failures count. A failure older than the
	// window resets the counter.
	Window time.Duration
	// LockDuration is how long the hard lock holds once triggered.
	LockDuration time.Duration
}

// DefaultPolicy is five failures per fifteen minutes, fifteen minute lock.
func DefaultPolicy() Policy {
	return Policy{
		MaxFailures:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// Guard evaluates the policy against the store.
type Guard struct {
	store  Store
	policy Policy
}

func NewGuard(store Store, policy Policy) *Guard {
	return &Guard{store: store, policy: policy}
}

// Check returns an error when the username is currently locked. Store
// failures are returned as persistence errors so the caller can decide
// whether to fail open.
func (g *Guard) Check(ctx context.Context, username string, now time.Time) error {
	record, err := g.store.Get(ctx, username)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "read lockout record")
	}
	if record == nil {
		return nil
	}
	if record.IsLockedAt(now) {
		return dErrors.New(dErrors.CodeUnauthorized, "too many failed login attempts")
	}
	return nil
}

// RecordFailure counts a failed login and locks the username when the
// policy budget is exhausted. Failures older than the window reset the
// counter first.
func (g *Guard) RecordFailure(ctx context.Context, username string, now time.Time) error {
	record, err := g.store.Get(ctx, username)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "read lockout record")
	}
	if record == nil {
		record = &Record{Username: username}
	}

	if now.Sub(record.LastFailureAt) > g.policy.Window {
		record.FailureCount = 0
	}
	record.FailureCount++
	record.LastFailureAt = now

	if record.FailureCount >= g.policy.MaxFailures {
		until := now.Add(g.policy.LockDuration)
		record.LockedUntil = &until
	}

	if err := g.store.Upsert(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "save lockout record")
	}
	return nil
}

// Clear wipes the failure history after a successful login.
func (g *Guard) Clear(ctx context.Context, username string) error {
	if err := g.store.Clear(ctx, username); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "clear lockout record")
	}
	return nil
}
