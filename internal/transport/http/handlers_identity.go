package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identitymodels "corebank/internal/identity/models"
	identityservice "corebank/internal/identity/service"
	dErrors "corebank/pkg/domain-errors"
)

// IdentityAdminService is the slice of the identity authority behind the
// staff and admin management surface.
type IdentityAdminService interface {
	CreateStaff(ctx context.Context, input identityservice.CreateStaffInput) (*identitymodels.StaffIdentity, error)
	RegisterStaff(ctx context.Context, input identityservice.CreateStaffInput) (*identitymodels.StaffIdentity, error)
	UpdateStaff(ctx context.Context, id uuid.UUID, input identityservice.UpdateStaffInput) (*identitymodels.StaffIdentity, error)
	SetStaffStatus(ctx context.Context, id uuid.UUID, status identitymodels.Status) (*identitymodels.StaffIdentity, error)
	ResetStaffPassword(ctx context.Context, id uuid.UUID, next string) error
	GetStaff(ctx context.Context, id uuid.UUID) (*identitymodels.StaffIdentity, error)
	ListStaff(ctx context.Context) ([]*identitymodels.StaffIdentity, error)
	CreateAdmin(ctx context.Context, input identityservice.CreateAdminInput) (*identitymodels.AdminIdentity, error)
	DeleteAdmin(ctx context.Context, id uuid.UUID) error
}

type IdentityHandler struct {
	identity IdentityAdminService
}

func NewIdentityHandler(identity IdentityAdminService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

// RegisterPublic mounts self-registration. No session required; the new
// identity starts PENDING.
func (h *IdentityHandler) RegisterPublic(r chi.Router) {
	r.Post("/staff/register", h.handleRegister)
}

// RegisterManagement mounts the staff management surface. The router wraps
// these in the MANAGER role gate.
func (h *IdentityHandler) RegisterManagement(r chi.Router) {
	r.Post("/staff", h.handleCreateStaff)
	r.Get("/staff", h.handleListStaff)
	r.Get("/staff/{id}", h.handleGetStaff)
	r.Patch("/staff/{id}", h.handleUpdateStaff)
	r.Put("/staff/{id}/status", h.handleSetStatus)
	r.Post("/staff/{id}/password-reset", h.handleResetPassword)
}

// RegisterAdminManagement mounts the admin tier surface. Routes require an
// admin session; the service additionally enforces the super-admin flag.
func (h *IdentityHandler) RegisterAdminManagement(r chi.Router) {
	r.Post("/admins", h.handleCreateAdmin)
	r.Delete("/admins/{id}", h.handleDeleteAdmin)
}

type staffBody struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

type staffResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	LastLogin   string `json:"last_login,omitempty"`
}

func toStaffResponse(staff *identitymodels.StaffIdentity) staffResponse {
	out := staffResponse{
		ID:          staff.ID.String(),
		Username:    staff.Username,
		DisplayName: staff.DisplayName,
		Email:       staff.Email,
		Phone:       staff.Phone,
		Role:        string(staff.Role),
		Status:      string(staff.Status),
		CreatedAt:   staff.CreatedAt.Format(timeFormat),
	}
	if staff.LastLogin != nil {
		out.LastLogin = staff.LastLogin.Format(timeFormat)
	}
	return out
}

func (h *IdentityHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	input, err := decodeStaffBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	staff, err := h.identity.RegisterStaff(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffResponse(staff))
}

func (h *IdentityHandler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	input, err := decodeStaffBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	staff, err := h.identity.CreateStaff(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffResponse(staff))
}

func decodeStaffBody(r *http.Request) (identityservice.CreateStaffInput, error) {
	var body staffBody
	if err := decodeJSON(r, &body); err != nil {
		return identityservice.CreateStaffInput{}, err
	}

	role, ok := identitymodels.ParseRole(body.Role)
	if !ok {
		return identityservice.CreateStaffInput{}, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", body.Role)
	}
	return identityservice.CreateStaffInput{
		Username:    body.Username,
		Password:    body.Password,
		DisplayName: body.DisplayName,
		Email:       body.Email,
		Phone:       body.Phone,
		Role:        role,
	}, nil
}

func (h *IdentityHandler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.identity.ListStaff(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]staffResponse, 0, len(staff))
	for _, member := range staff {
		out = append(out, toStaffResponse(member))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *IdentityHandler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	staff, err := h.identity.GetStaff(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

type updateStaffBody struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Role        *string `json:"role"`
}

func (h *IdentityHandler) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body updateStaffBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	input := identityservice.UpdateStaffInput{
		DisplayName: body.DisplayName,
		Email:       body.Email,
		Phone:       body.Phone,
	}
	if body.Role != nil {
		role, ok := identitymodels.ParseRole(*body.Role)
		if !ok {
			writeError(w, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", *body.Role))
			return
		}
		input.Role = &role
	}

	staff, err := h.identity.UpdateStaff(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

type setStatusBody struct {
	Status string `json:"status"`
}

func (h *IdentityHandler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body setStatusBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	staff, err := h.identity.SetStaffStatus(r.Context(), id, identitymodels.Status(body.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

type resetPasswordBody struct {
	NewPassword string `json:"new_password"`
}

func (h *IdentityHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body resetPasswordBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := h.identity.ResetStaffPassword(r.Context(), id, body.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminBody struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

type adminResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	Status       string `json:"status"`
}

func (h *IdentityHandler) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body adminBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	admin, err := h.identity.CreateAdmin(r.Context(), identityservice.CreateAdminInput{
		Username:     body.Username,
		Password:     body.Password,
		DisplayName:  body.DisplayName,
		Email:        body.Email,
		IsSuperAdmin: body.IsSuperAdmin,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, adminResponse{
		ID:           admin.ID.String(),
		Username:     admin.Username,
		DisplayName:  admin.DisplayName,
		IsSuperAdmin: admin.IsSuperAdmin,
		Status:       string(admin.Status),
	})
}

func (h *IdentityHandler) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.identity.DeleteAdmin(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
