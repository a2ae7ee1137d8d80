package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "corebank/pkg/domain-errors"
)

// Status is the lifecycle state of a staff or admin identity.
// Only ACTIVE identities may authenticate.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusTerminated Status = "TERMINATED"
)

// IsValid reports whether the status is one of the defined lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusSuspended, StatusTerminated:
		return true
	default:
		return false
	}
}

// ActorType distinguishes the two credentialed identity kinds.
type ActorType string

const (
	ActorStaff ActorType = "staff"
	ActorAdmin ActorType = "admin"
)

// StaffIdentity is a credentialed back-office identity.
//
// Invariants:
//   - Username is non-empty and unique (enforced by the credential store)
//   - PasswordHash is an irreversible bcrypt digest, never the plaintext
//   - Status transitions are unrestricted among the defined states, but only
//     ACTIVE identities authenticate
//   - CreatedAt is immutable after construction
type StaffIdentity struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	DisplayName  string
	Email        string
	Phone        string
	Role         Role
	Status       Status
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// AdminIdentity is the elevated identity tier. Admins are evaluated on the
// IsSuperAdmin flag for admin-management operations rather than the four-tier
// role ladder.
type AdminIdentity struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	DisplayName  string
	Email        string
	IsSuperAdmin bool
	Status       Status
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// IdentityView is the opaque handle callers receive after authentication.
// It never carries the password hash.
type IdentityView struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	ActorType    ActorType
	Role         Role
	IsSuperAdmin bool
}

func (s *StaffIdentity) IsActive() bool {
	return s.Status == StatusActive
}

func (a *AdminIdentity) IsActive() bool {
	return a.Status == StatusActive
}

// View projects the staff identity into the caller-facing handle.
func (s *StaffIdentity) View() IdentityView {
	return IdentityView{
		ID:          s.ID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		ActorType:   ActorStaff,
		Role:        s.Role,
	}
}

// View projects the admin identity into the caller-facing handle.
// Admins carry the top role level so hierarchy checks pass uniformly.
func (a *AdminIdentity) View() IdentityView {
	return IdentityView{
		ID:           a.ID,
		Username:     a.Username,
		DisplayName:  a.DisplayName,
		ActorType:    ActorAdmin,
		Role:         RoleAdmin,
		IsSuperAdmin: a.IsSuperAdmin,
	}
}

// NewStaffIdentity constructs a staff identity. Identities created by an
// authenticated privileged actor start ACTIVE; self-registered identities
// start PENDING and require elevation before they can authenticate.
func NewStaffIdentity(id uuid.UUID, username, passwordHash, displayName string, role Role, createdBy uuid.UUID, selfRegistered bool, now time.Time) (*StaffIdentity, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role %q", role)
	}

	status := StatusActive
	if selfRegistered {
		status = StatusPending
	}

	return &StaffIdentity{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         role,
		Status:       status,
		CreatedBy:    createdBy,
		CreatedAt:    now,
	}, nil
}

// NewAdminIdentity constructs an admin identity in ACTIVE status.
func NewAdminIdentity(id uuid.UUID, username, passwordHash, displayName string, superAdmin bool, createdBy uuid.UUID, now time.Time) (*AdminIdentity, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &AdminIdentity{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		IsSuperAdmin: superAdmin,
		Status:       StatusActive,
		CreatedBy:    createdBy,
		CreatedAt:    now,
	}, nil
}
