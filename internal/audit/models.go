package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome tags every recorded action, including attempts rejected for
// permission or validation reasons.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
	OutcomeWarning Outcome = "WARNING"
)

// Kind separates the staff-facing activity trail from administrative audit
// records. Both share the same append-only contract and storage.
type Kind string

const (
	KindActivity Kind = "activity"
	KindAudit    Kind = "audit"
)

// Action names a privileged operation.
type Action string

const (
	// Banking operations (activity trail)
	ActionCreateRequest  Action = "CREATE_REQUEST"
	ActionApproveRequest Action = "APPROVE_REQUEST"
	ActionRejectRequest  Action = "REJECT_REQUEST"
	ActionLogin          Action = "LOGIN"
	ActionLogout         Action = "LOGOUT"

	// Administrative operations (audit trail)
	ActionCreateIdentity Action = "CREATE_IDENTITY"
	ActionUpdateIdentity Action = "UPDATE_IDENTITY"
	ActionSetStatus      Action = "SET_STATUS"
	ActionChangePassword Action = "CHANGE_PASSWORD"
	ActionResetPassword  Action = "RESET_PASSWORD"
	ActionDeleteIdentity Action = "DELETE_IDENTITY"
)

// Entry is an immutable record of a privileged action. Entries are never
// mutated or deleted by the core.
type Entry struct {
	ID            uuid.UUID
	Kind          Kind
	ActorID       uuid.UUID
	ActorType     string
	Action        Action
	TargetAccount string
	Module        string
	Details       string
	Outcome       Outcome
	Timestamp     time.Time
}

// Store is the append-only persistence contract for the ledger. Reads are
// ordered most-recent-first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListAll(ctx context.Context) ([]Entry, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]Entry, error)
	ListFailedLogins(ctx context.Context, limit int) ([]Entry, error)
}
