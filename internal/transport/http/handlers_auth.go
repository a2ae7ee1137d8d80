package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	identitymodels "corebank/internal/identity/models"
	identityservice "corebank/internal/identity/service"
	"corebank/internal/identity/session"
	"corebank/pkg/requestcontext"
)

// AuthService is the slice of the identity authority the auth handler and
// middleware need.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*identityservice.LoginResult, error)
	Logout(ctx context.Context, tokenID string) error
	ChangePassword(ctx context.Context, current, next string) error
	CheckSession(ctx context.Context, tokenID string) bool
	RequirePermission(ctx context.Context, tokenID string, required identitymodels.Role) (*session.Session, error)
}

type AuthHandler struct {
	identity AuthService
}

func NewAuthHandler(identity AuthService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/password", h.handleChangePassword)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	ActorID     string `json:"actor_id"`
	ActorType   string `json:"actor_type"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:       result.Token,
		ActorID:     result.Identity.ID.String(),
		ActorType:   string(result.Identity.ActorType),
		Username:    result.Identity.Username,
		DisplayName: result.Identity.DisplayName,
		Role:        string(result.Identity.Role),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context(), requestcontext.SessionID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.identity.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
