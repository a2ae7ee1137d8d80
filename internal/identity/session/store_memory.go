package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps session records in a mutex-guarded map. Two goroutines
// evaluating an activity check concurrently must not race on the last-activity
// write, so every access goes through the lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Save(_ context.Context, sess *Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.sessions[sess.TokenID] = &cp
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, tokenID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *InMemoryStore) Touch(_ context.Context, tokenID string, now time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sess.LastActivity = now
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, tokenID)
	return nil
}

func (s *InMemoryStore) DeleteByActor(_ context.Context, actorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tokenID, sess := range s.sessions {
		if sess.ActorID == actorID {
			delete(s.sessions, tokenID)
			removed++
		}
	}
	return removed, nil
}
