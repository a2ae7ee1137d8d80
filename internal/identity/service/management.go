package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"corebank/internal/audit"
	"corebank/internal/identity/models"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// CreateStaffInput carries the fields for a new staff identity.
type CreateStaffInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
	Phone       string
	Role        models.Role
}

// CreateStaff creates a staff identity on behalf of an authenticated
// privileged actor. The new identity starts ACTIVE.
func (s *Service) CreateStaff(ctx context.Context, input CreateStaffInput) (*models.StaffIdentity, error) {
	return s.createStaff(ctx, input, false)
}

// RegisterStaff is the self-registration path: the identity starts PENDING
// and cannot authenticate until a privileged actor activates it.
func (s *Service) RegisterStaff(ctx context.Context, input CreateStaffInput) (*models.StaffIdentity, error) {
	return s.createStaff(ctx, input, true)
}

func (s *Service) createStaff(ctx context.Context, input CreateStaffInput, selfRegistered bool) (*models.StaffIdentity, error) {
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	staff, err := models.NewStaffIdentity(
		uuid.New(), input.Username, hash, input.DisplayName,
		input.Role, requestcontext.ActorID(ctx), selfRegistered, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	staff.Email = input.Email
	staff.Phone = input.Phone

	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "username %q is already taken", input.Username)
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "create staff identity")
	}

	s.recordAdminAction(ctx, audit.ActionCreateIdentity, audit.OutcomeSuccess,
		fmt.Sprintf("staff=%s username=%s role=%s", staff.ID, staff.Username, staff.Role))
	return staff, nil
}

// UpdateStaffInput holds the mutable profile fields. Nil pointers leave the
// current value untouched; the username is immutable.
type UpdateStaffInput struct {
	DisplayName *string
	Email       *string
	Phone       *string
	Role        *models.Role
}

// UpdateStaff applies a partial profile update to a staff identity.
func (s *Service) UpdateStaff(ctx context.Context, id uuid.UUID, input UpdateStaffInput) (*models.StaffIdentity, error) {
	staff, err := s.findStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		staff.DisplayName = *input.DisplayName
	}
	if input.Email != nil {
		staff.Email = *input.Email
	}
	if input.Phone != nil {
		staff.Phone = *input.Phone
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", *input.Role)
		}
		staff.Role = *input.Role
	}

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "update staff identity")
	}

	s.recordAdminAction(ctx, audit.ActionUpdateIdentity, audit.OutcomeSuccess,
		fmt.Sprintf("staff=%s", staff.ID))
	return staff, nil
}

// SetStaffStatus moves a staff identity to a new lifecycle state. Leaving
// ACTIVE tears down every live session for the identity immediately.
func (s *Service) SetStaffStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.StaffIdentity, error) {
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status)
	}

	staff, err := s.findStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	staff.Status = status
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "update staff status")
	}

	if status != models.StatusActive {
		removed, err := s.sessions.TeardownActor(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "session teardown on status change failed", "staff_id", id, "error", err)
		} else if removed > 0 {
			s.logger.InfoContext(ctx, "sessions revoked on status change", "staff_id", id, "count", removed)
		}
	}

	s.recordAdminAction(ctx, audit.ActionSetStatus, audit.OutcomeSuccess,
		fmt.Sprintf("staff=%s status=%s", staff.ID, status))
	return staff, nil
}

// ChangePassword lets an authenticated actor rotate their own credential
// after proving knowledge of the current one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	actorID := requestcontext.ActorID(ctx)
	if actorID == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor")
	}

	switch models.ActorType(requestcontext.ActorType(ctx)) {
	case models.ActorAdmin:
		admin, err := s.admins.FindByID(ctx, actorID)
		if err != nil {
			return s.mapLookupErr(err, "admin identity")
		}
		if err := s.verifyCurrent(admin.PasswordHash, current); err != nil {
			s.recordAdminAction(ctx, audit.ActionChangePassword, audit.OutcomeFailed, "current password mismatch")
			return err
		}
		if admin.PasswordHash, err = s.hasher.Hash(next); err != nil {
			return err
		}
		if err := s.admins.Update(ctx, admin); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "update admin credential")
		}
	default:
		staff, err := s.staff.FindByID(ctx, actorID)
		if err != nil {
			return s.mapLookupErr(err, "staff identity")
		}
		if err := s.verifyCurrent(staff.PasswordHash, current); err != nil {
			s.recordAdminAction(ctx, audit.ActionChangePassword, audit.OutcomeFailed, "current password mismatch")
			return err
		}
		if staff.PasswordHash, err = s.hasher.Hash(next); err != nil {
			return err
		}
		if err := s.staff.Update(ctx, staff); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "update staff credential")
		}
	}

	s.recordAdminAction(ctx, audit.ActionChangePassword, audit.OutcomeSuccess, "")
	return nil
}

func (s *Service) verifyCurrent(hash, current string) error {
	match, err := s.hasher.Compare(hash, current)
	if err != nil {
		return err
	}
	if !match {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}
	return nil
}

// ResetStaffPassword sets a new credential for a staff identity without the
// current one. Reserved for admins; the transport layer gates the role, the
// ledger records who did it.
func (s *Service) ResetStaffPassword(ctx context.Context, id uuid.UUID, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	staff, err := s.findStaff(ctx, id)
	if err != nil {
		return err
	}

	if staff.PasswordHash, err = s.hasher.Hash(next); err != nil {
		return err
	}
	if err := s.staff.Update(ctx, staff); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "reset staff credential")
	}

	s.recordAdminAction(ctx, audit.ActionResetPassword, audit.OutcomeSuccess,
		fmt.Sprintf("staff=%s", staff.ID))
	return nil
}

// CreateAdminInput carries the fields for a new admin identity.
type CreateAdminInput struct {
	Username     string
	Password     string
	DisplayName  string
	Email        string
	IsSuperAdmin bool
}

// CreateAdmin creates an admin identity. Only a super-admin may do this.
func (s *Service) CreateAdmin(ctx context.Context, input CreateAdminInput) (*models.AdminIdentity, error) {
	if err := s.requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	admin, err := models.NewAdminIdentity(
		uuid.New(), input.Username, hash, input.DisplayName,
		input.IsSuperAdmin, requestcontext.ActorID(ctx), requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	admin.Email = input.Email

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "username %q is already taken", input.Username)
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "create admin identity")
	}

	s.recordAdminAction(ctx, audit.ActionCreateIdentity, audit.OutcomeSuccess,
		fmt.Sprintf("admin=%s username=%s super=%t", admin.ID, admin.Username, admin.IsSuperAdmin))
	return admin, nil
}

// DeleteAdmin permanently removes an admin identity. Only a super-admin may
// do this, and never to themselves.
func (s *Service) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	if err := s.requireSuperAdmin(ctx); err != nil {
		s.recordAdminAction(ctx, audit.ActionDeleteIdentity, audit.OutcomeFailed,
			fmt.Sprintf("admin=%s denied", id))
		return err
	}
	if id == requestcontext.ActorID(ctx) {
		s.recordAdminAction(ctx, audit.ActionDeleteIdentity, audit.OutcomeFailed, "self-deletion attempt")
		return dErrors.New(dErrors.CodePermissionDenied, "admins cannot delete their own identity")
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "admin identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, "delete admin identity")
	}

	if _, err := s.sessions.TeardownActor(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "session teardown on admin delete failed", "admin_id", id, "error", err)
	}

	s.recordAdminAction(ctx, audit.ActionDeleteIdentity, audit.OutcomeSuccess,
		fmt.Sprintf("admin=%s", id))
	return nil
}

// GetStaff returns a staff identity by ID.
func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (*models.StaffIdentity, error) {
	return s.findStaff(ctx, id)
}

// ListStaff returns every staff identity.
func (s *Service) ListStaff(ctx context.Context) ([]*models.StaffIdentity, error) {
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list staff identities")
	}
	return staff, nil
}

func (s *Service) findStaff(ctx context.Context, id uuid.UUID) (*models.StaffIdentity, error) {
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(err, "staff identity")
	}
	return staff, nil
}

func (s *Service) mapLookupErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, "look up "+what)
}

// requireSuperAdmin verifies the context actor is an admin with the
// super-admin flag. The flag is re-read from the store so a revocation takes
// effect on the next operation, not the next login.
func (s *Service) requireSuperAdmin(ctx context.Context) error {
	if models.ActorType(requestcontext.ActorType(ctx)) != models.ActorAdmin {
		return dErrors.New(dErrors.CodePermissionDenied, "admin management requires a super-admin")
	}
	admin, err := s.admins.FindByID(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		return s.mapLookupErr(err, "admin identity")
	}
	if !admin.IsSuperAdmin {
		return dErrors.New(dErrors.CodePermissionDenied, "admin management requires a super-admin")
	}
	return nil
}

func (s *Service) recordAdminAction(ctx context.Context, action audit.Action, outcome audit.Outcome, details string) {
	if s.ledger == nil {
		return
	}
	s.ledger.Record(ctx, audit.Entry{
		Kind:      audit.KindAudit,
		ActorID:   requestcontext.ActorID(ctx),
		ActorType: requestcontext.ActorType(ctx),
		Action:    action,
		Module:    "identity",
		Details:   details,
		Outcome:   outcome,
	})
}

func validatePassword(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}
