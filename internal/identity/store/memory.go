package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"corebank/internal/identity/models"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStaffStore is the test and development backend for staff
// credentials. Username uniqueness is enforced case-insensitively, matching
// the postgres unique index on lower(username).
type InMemoryStaffStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.StaffIdentity
	names map[string]uuid.UUID
}

func NewInMemoryStaffStore() *InMemoryStaffStore {
	return &InMemoryStaffStore{
		byID:  make(map[uuid.UUID]*models.StaffIdentity),
		names: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStaffStore) Create(_ context.Context, staff *models.StaffIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(staff.Username)
	if _, exists := s.names[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *staff
	s.byID[staff.ID] = &cp
	s.names[key] = staff.ID
	return nil
}

func (s *InMemoryStaffStore) FindByID(_ context.Context, id uuid.UUID) (*models.StaffIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *staff
	return &cp, nil
}

func (s *InMemoryStaffStore) FindByUsername(_ context.Context, username string) (*models.StaffIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.names[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStaffStore) Update(_ context.Context, staff *models.StaffIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[staff.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Username is immutable once created; preserve the index entry.
	cp := *staff
	cp.Username = existing.Username
	s.byID[staff.ID] = &cp
	return nil
}

func (s *InMemoryStaffStore) List(_ context.Context) ([]*models.StaffIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.StaffIdentity, 0, len(s.byID))
	for _, staff := range s.byID {
		cp := *staff
		out = append(out, &cp)
	}
	return out, nil
}

// InMemoryAdminStore is the test and development backend for admin
// credentials.
type InMemoryAdminStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.AdminIdentity
	names map[string]uuid.UUID
}

func NewInMemoryAdminStore() *InMemoryAdminStore {
	return &InMemoryAdminStore{
		byID:  make(map[uuid.UUID]*models.AdminIdentity),
		names: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryAdminStore) Create(_ context.Context, admin *models.AdminIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(admin.Username)
	if _, exists := s.names[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *admin
	s.byID[admin.ID] = &cp
	s.names[key] = admin.ID
	return nil
}

func (s *InMemoryAdminStore) FindByID(_ context.Context, id uuid.UUID) (*models.AdminIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *admin
	return &cp, nil
}

func (s *InMemoryAdminStore) FindByUsername(_ context.Context, username string) (*models.AdminIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.names[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryAdminStore) Update(_ context.Context, admin *models.AdminIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[admin.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cp := *admin
	cp.Username = existing.Username
	s.byID[admin.ID] = &cp
	return nil
}

func (s *InMemoryAdminStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.names, strings.ToLower(admin.Username))
	delete(s.byID, id)
	return nil
}
