package lockout

import (
	"context"
	"strings"
	"sync"
)

// InMemoryStore keeps lockout records in a map. Suitable for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, username string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[strings.ToLower(username)]
	if !ok {
		return nil, nil
	}
	out := record
	return &out, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strings.ToLower(record.Username)] = *record
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, strings.ToLower(username))
	return nil
}
