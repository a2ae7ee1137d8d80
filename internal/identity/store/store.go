// Package store persists staff and admin credentials. It is the system's
// credential store: services own the business rules (status gating, session
// timeout) and only delegate persistence here.
package store

import (
	"context"

	"github.com/google/uuid"

	"corebank/internal/identity/models"
)

// StaffStore persists staff identities. Create returns sentinel.ErrConflict
// when the username is already taken; lookups return sentinel.ErrNotFound.
type StaffStore interface {
	Create(ctx context.Context, staff *models.StaffIdentity) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StaffIdentity, error)
	FindByUsername(ctx context.Context, username string) (*models.StaffIdentity, error)
	Update(ctx context.Context, staff *models.StaffIdentity) error
	List(ctx context.Context) ([]*models.StaffIdentity, error)
}

// AdminStore persists admin identities with the same error contract as
// StaffStore. Delete is permanent and only reachable through the super-admin
// gate in the identity service.
type AdminStore interface {
	Create(ctx context.Context, admin *models.AdminIdentity) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminIdentity, error)
	FindByUsername(ctx context.Context, username string) (*models.AdminIdentity, error)
	Update(ctx context.Context, admin *models.AdminIdentity) error
	Delete(ctx context.Context, id uuid.UUID) error
}
