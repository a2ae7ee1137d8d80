package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"corebank/internal/audit"
	dErrors "corebank/pkg/domain-errors"
)

// LedgerReader is the read side of the audit ledger. The router gates these
// routes to MANAGER-and-above sessions.
type LedgerReader interface {
	ListAll(ctx context.Context) ([]audit.Entry, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]audit.Entry, error)
	ListFailedLogins(ctx context.Context, limit int) ([]audit.Entry, error)
}

type AuditHandler struct {
	ledger LedgerReader
}

func NewAuditHandler(ledger LedgerReader) *AuditHandler {
	return &AuditHandler{ledger: ledger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit", h.handleListAll)
	r.Get("/audit/actor/{id}", h.handleListByActor)
	r.Get("/audit/failed-logins", h.handleFailedLogins)
}

type entryResponse struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	ActorID       string `json:"actor_id"`
	ActorType     string `json:"actor_type"`
	Action        string `json:"action"`
	TargetAccount string `json:"target_account,omitempty"`
	Module        string `json:"module,omitempty"`
	Details       string `json:"details,omitempty"`
	Outcome       string `json:"outcome"`
	Timestamp     string `json:"timestamp"`
}

func toEntryResponses(entries []audit.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:            e.ID.String(),
			Kind:          string(e.Kind),
			ActorID:       e.ActorID.String(),
			ActorType:     e.ActorType,
			Action:        string(e.Action),
			TargetAccount: e.TargetAccount,
			Module:        e.Module,
			Details:       e.Details,
			Outcome:       string(e.Outcome),
			Timestamp:     e.Timestamp.Format(timeFormat),
		})
	}
	return out
}

func (h *AuditHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (h *AuditHandler) handleListByActor(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.ledger.ListByActor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (h *AuditHandler) handleFailedLogins(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.ListFailedLogins(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}
