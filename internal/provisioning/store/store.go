// Package store persists account requests and the accounts approvals
// produce. Decide is the transactional heart of the workflow: it hands the
// caller an exclusively locked request and commits the callback's mutations
// all-or-nothing.
package store

import (
	"context"

	"github.com/google/uuid"

	"corebank/internal/provisioning/models"
)

// AccountCreator creates a funded account inside the surrounding decision
// transaction, assigning and returning a fresh account number.
type AccountCreator interface {
	Create(ctx context.Context, account *models.Account) (string, error)
}

// DecideFunc mutates a locked PENDING request. Returning an error rolls the
// whole decision back, including any account created through the creator.
type DecideFunc func(ctx context.Context, req *models.AccountRequest, accounts AccountCreator) error

// Store is the persistence contract for the provisioning workflow.
// CreateRequest returns sentinel.ErrConflict on a duplicate id; lookups
// return sentinel.ErrNotFound.
type Store interface {
	CreateRequest(ctx context.Context, req *models.AccountRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*models.AccountRequest, error)
	// ListPending returns PENDING requests oldest-first so reviewers work
	// the queue in submission order.
	ListPending(ctx context.Context) ([]*models.AccountRequest, error)
	// ListAll returns up to limit requests, most recent first. A zero limit
	// means no cap.
	ListAll(ctx context.Context, limit int) ([]*models.AccountRequest, error)

	// Decide runs fn against the request under an exclusive lock. Concurrent
	// decisions on the same request serialize; the loser observes the
	// winner's terminal status. The updated request is returned on commit.
	Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.AccountRequest, error)

	GetAccount(ctx context.Context, number string) (*models.Account, error)
}
