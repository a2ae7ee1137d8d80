package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"corebank/internal/audit"
)

// InMemoryStore keeps ledger entries in an append-only slice. Reads return
// copies in most-recent-first order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reversed(func(audit.Entry) bool { return true }, 0), nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID uuid.UUID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reversed(func(e audit.Entry) bool { return e.ActorID == actorID }, 0), nil
}

func (s *InMemoryStore) ListFailedLogins(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reversed(func(e audit.Entry) bool {
		return e.Action == audit.ActionLogin && e.Outcome == audit.OutcomeFailed
	}, limit), nil
}

// reversed walks the append-order slice backwards so newest entries come
// first. Caller must hold the read lock.
func (s *InMemoryStore) reversed(keep func(audit.Entry) bool, limit int) []audit.Entry {
	out := make([]audit.Entry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !keep(s.entries[i]) {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
