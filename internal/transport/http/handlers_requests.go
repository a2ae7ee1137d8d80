package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identitymodels "corebank/internal/identity/models"
	provisioningmodels "corebank/internal/provisioning/models"
	provisioningservice "corebank/internal/provisioning/service"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/requestcontext"
)

// ProvisioningService is the slice of the workflow the request handler needs.
type ProvisioningService interface {
	CreateRequest(ctx context.Context, input provisioningservice.CreateRequestInput) (*provisioningmodels.AccountRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, actor provisioningservice.Actor) (*provisioningservice.ApprovalResult, error)
	Reject(ctx context.Context, requestID uuid.UUID, actor provisioningservice.Actor, remarks string) (*provisioningmodels.AccountRequest, error)
	ListPending(ctx context.Context) ([]*provisioningmodels.AccountRequest, error)
	ListAll(ctx context.Context, limit int) ([]*provisioningmodels.AccountRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*provisioningmodels.AccountRequest, error)
}

type RequestHandler struct {
	workflow ProvisioningService
	identity AuthService
}

func NewRequestHandler(workflow ProvisioningService, identity AuthService) *RequestHandler {
	return &RequestHandler{workflow: workflow, identity: identity}
}

// RegisterIntake mounts the unauthenticated application intake.
func (h *RequestHandler) RegisterIntake(r chi.Router) {
	r.Post("/requests", h.handleCreate)
}

// RegisterReview mounts the staff review surface. The router wraps these in
// the session and role middleware.
func (h *RequestHandler) RegisterReview(r chi.Router) {
	r.Get("/requests", h.handleListAll)
	r.Get("/requests/pending", h.handleListPending)
	r.Get("/requests/{id}", h.handleGet)
	r.Post("/requests/{id}/approve", h.handleApprove)
	r.Post("/requests/{id}/reject", h.handleReject)
}

type createRequestBody struct {
	ApplicantName  string `json:"applicant_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	AccountType    string `json:"account_type"`
	InitialDeposit int64  `json:"initial_deposit"`
}

type requestResponse struct {
	ID             string `json:"id"`
	ApplicantName  string `json:"applicant_name"`
	AccountType    string `json:"account_type"`
	InitialDeposit int64  `json:"initial_deposit"`
	Status         string `json:"status"`
	SubmittedAt    string `json:"submitted_at"`
	ProcessedBy    string `json:"processed_by,omitempty"`
	ProcessedAt    string `json:"processed_at,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
	AccountNumber  string `json:"account_number,omitempty"`
}

func toRequestResponse(req *provisioningmodels.AccountRequest) requestResponse {
	out := requestResponse{
		ID:             req.ID.String(),
		ApplicantName:  req.ApplicantName,
		AccountType:    string(req.AccountType),
		InitialDeposit: req.InitialDeposit,
		Status:         string(req.Status),
		SubmittedAt:    req.SubmittedAt.Format(timeFormat),
		Remarks:        req.Remarks,
		AccountNumber:  req.AccountNumber,
	}
	if req.ProcessedBy != uuid.Nil {
		out.ProcessedBy = req.ProcessedBy.String()
	}
	if req.ProcessedAt != nil {
		out.ProcessedAt = req.ProcessedAt.Format(timeFormat)
	}
	return out
}

func (h *RequestHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, err := h.workflow.CreateRequest(r.Context(), provisioningservice.CreateRequestInput{
		ApplicantName:  body.ApplicantName,
		Email:          body.Email,
		Phone:          body.Phone,
		Address:        body.Address,
		DocumentType:   body.DocumentType,
		DocumentNumber: body.DocumentNumber,
		AccountType:    provisioningmodels.AccountType(body.AccountType),
		InitialDeposit: body.InitialDeposit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(req))
}

func (h *RequestHandler) handleListPending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.workflow.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponses(reqs))
}

func (h *RequestHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	reqs, err := h.workflow.ListAll(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponses(reqs))
}

func (h *RequestHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := h.workflow.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

type approveResponse struct {
	AccountNumber     string `json:"account_number"`
	OneTimeCredential string `json:"one_time_credential"`
}

func (h *RequestHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor, err := h.decidingActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.workflow.Approve(r.Context(), id, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approveResponse{
		AccountNumber:     result.AccountNumber,
		OneTimeCredential: result.OneTimeCredential,
	})
}

type rejectBody struct {
	Remarks string `json:"remarks"`
}

func (h *RequestHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body rejectBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Remarks == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "remarks are required to reject a request"))
		return
	}

	actor, err := h.decidingActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := h.workflow.Reject(r.Context(), id, actor, body.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

// decidingActor rebuilds the workflow actor from the authenticated session so
// the role the workflow checks is the live one, not a stale token claim.
func (h *RequestHandler) decidingActor(r *http.Request) (provisioningservice.Actor, error) {
	ctx := r.Context()
	sess, err := h.identity.RequirePermission(ctx, requestcontext.SessionID(ctx), identitymodels.RoleTeller)
	if err != nil {
		return provisioningservice.Actor{}, err
	}
	return provisioningservice.Actor{
		ID:   sess.ActorID,
		Role: identitymodels.Role(sess.Role),
	}, nil
}

func toRequestResponses(reqs []*provisioningmodels.AccountRequest) []requestResponse {
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestResponse(req))
	}
	return out
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s", key)
	}
	return id, nil
}
