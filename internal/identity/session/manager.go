package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"corebank/internal/platform/metrics"
	"corebank/pkg/platform/sentinel"
)

// Manager owns the session lifetime rules: establishment after a successful
// login, the sliding-window idle expiry, and idempotent teardown. Persistence
// is delegated to a Store so memory and Redis backends are interchangeable.
type Manager struct {
	store   Store
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// NewManager builds a Manager with the given idle timeout.
func NewManager(store Store, timeout time.Duration, opts ...Option) *Manager {
	m := &Manager{store: store, timeout: timeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Establish records a new session for an authenticated actor.
func (m *Manager) Establish(ctx context.Context, sess *Session) error {
	if sess.LastActivity.IsZero() {
		sess.LastActivity = sess.CreatedAt
	}
	return m.store.Save(ctx, sess, m.timeout)
}

// IsActive reports whether the session exists and its idle window has not
// elapsed. A positive check refreshes the last-activity timestamp, extending
// the window; an expired session is torn down as a side effect and reported
// inactive.
func (m *Manager) IsActive(ctx context.Context, tokenID string, now time.Time) bool {
	sess, err := m.store.Find(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && m.logger != nil {
			m.logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return false
	}

	if now.Sub(sess.LastActivity) >= m.timeout {
		if err := m.store.Delete(ctx, tokenID); err != nil && m.logger != nil {
			m.logger.WarnContext(ctx, "expired session teardown failed", "error", err)
		}
		if m.metrics != nil {
			m.metrics.SessionsExpired.Inc()
		}
		return false
	}

	if err := m.store.Touch(ctx, tokenID, now, m.timeout); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "session activity refresh failed", "error", err)
		}
	}
	return true
}

// Get returns the session record when it exists, without touching the window.
func (m *Manager) Get(ctx context.Context, tokenID string) (*Session, error) {
	return m.store.Find(ctx, tokenID)
}

// Teardown removes a single session. Removing an absent session is a no-op.
func (m *Manager) Teardown(ctx context.Context, tokenID string) error {
	return m.store.Delete(ctx, tokenID)
}

// TeardownActor removes every session belonging to an actor, e.g. on
// suspension or termination.
func (m *Manager) TeardownActor(ctx context.Context, actorID uuid.UUID) (int, error) {
	return m.store.DeleteByActor(ctx, actorID)
}
