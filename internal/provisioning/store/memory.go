package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"corebank/internal/provisioning/models"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore is the non-durable Store used in tests and local runs. Decide
// serializes on the store mutex, which gives the same loser-sees-terminal
// behavior as row locking.
type InMemoryStore struct {
	mu         sync.Mutex
	requests   map[uuid.UUID]*models.AccountRequest
	accounts   map[string]*models.Account
	nextNumber int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:   make(map[uuid.UUID]*models.AccountRequest),
		accounts:   make(map[string]*models.Account),
		nextNumber: 1000000001,
	}
}

func (s *InMemoryStore) CreateRequest(_ context.Context, req *models.AccountRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetRequest(_ context.Context, id uuid.UUID) (*models.AccountRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *InMemoryStore) ListPending(_ context.Context) ([]*models.AccountRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AccountRequest
	for _, req := range s.requests {
		if req.Status == models.RequestPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context, limit int) ([]*models.AccountRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AccountRequest, 0, len(s.requests))
	for _, req := range s.requests {
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryCreator stages account creation so a callback error discards it.
type memoryCreator struct {
	store  *InMemoryStore
	staged *models.Account
}

func (c *memoryCreator) Create(_ context.Context, account *models.Account) (string, error) {
	number := fmt.Sprintf("%d", c.store.nextNumber)
	c.store.nextNumber++
	cp := *account
	cp.Number = number
	c.staged = &cp
	return number, nil
}

func (s *InMemoryStore) Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.AccountRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Work on a copy; nothing is visible until fn succeeds.
	working := *current
	creator := &memoryCreator{store: s}
	if err := fn(ctx, &working, creator); err != nil {
		return nil, err
	}

	if creator.staged != nil {
		s.accounts[creator.staged.Number] = creator.staged
	}
	s.requests[id] = &working
	cp := working
	return &cp, nil
}

func (s *InMemoryStore) GetAccount(_ context.Context, number string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *account
	return &cp, nil
}
