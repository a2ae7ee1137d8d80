//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"corebank/internal/provisioning/models"
	"corebank/internal/provisioning/store"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/testutil/containers"
)

type PostgresWorkflowStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresWorkflowStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresWorkflowStoreSuite))
}

func (s *PostgresWorkflowStoreSuite) SetupSuite() {
	s.pg = containers.StartPostgres(s.T())
	s.store = store.NewPostgresStore(s.pg.Pool)
}

func (s *PostgresWorkflowStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "accounts", "account_requests"))
}

func (s *PostgresWorkflowStoreSuite) newRequest() *models.AccountRequest {
	req, err := models.NewAccountRequest(uuid.New(), "Maria Santos", "maria@example.com", "555-0100",
		"12 High Street", "PASSPORT", "P1234567", models.AccountSavings, 250_000, time.Now().UTC())
	s.Require().NoError(err)
	return req
}

func approve(actorID uuid.UUID) store.DecideFunc {
	return func(ctx context.Context, req *models.AccountRequest, accounts store.AccountCreator) error {
		if err := req.CanDecide(); err != nil {
			return err
		}
		number, err := accounts.Create(ctx, &models.Account{
			HolderName:  req.ApplicantName,
			Email:       req.Email,
			Phone:       req.Phone,
			AccountType: req.AccountType,
			Balance:     req.InitialDeposit,
			RequestID:   req.ID,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return req.ApplyApproval(actorID, number, time.Now().UTC())
	}
}

func (s *PostgresWorkflowStoreSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	req := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, req))

	found, err := s.store.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.ApplicantName, found.ApplicantName)
	s.Equal(req.Email, found.Email)
	s.Equal(req.AccountType, found.AccountType)
	s.Equal(req.InitialDeposit, found.InitialDeposit)
	s.Equal(models.RequestPending, found.Status)
	s.Equal(uuid.Nil, found.ProcessedBy)
	s.Nil(found.ProcessedAt)
	s.Empty(found.AccountNumber)
}

func (s *PostgresWorkflowStoreSuite) TestDuplicateRequestConflicts() {
	ctx := context.Background()
	req := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, req))
	s.ErrorIs(s.store.CreateRequest(ctx, req), sentinel.ErrConflict)
}

func (s *PostgresWorkflowStoreSuite) TestDecideCommitsRequestAndAccountTogether() {
	ctx := context.Background()
	req := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, req))

	actorID := uuid.New()
	decided, err := s.store.Decide(ctx, req.ID, approve(actorID))
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, decided.Status)
	s.Equal(actorID, decided.ProcessedBy)
	s.Require().NotNil(decided.ProcessedAt)
	s.NotEmpty(decided.AccountNumber)

	account, err := s.store.GetAccount(ctx, decided.AccountNumber)
	s.Require().NoError(err)
	s.Equal(req.ApplicantName, account.HolderName)
	s.Equal(req.InitialDeposit, account.Balance)
	s.Equal(req.ID, account.RequestID)
}

func (s *PostgresWorkflowStoreSuite) TestDecideRollsBackCreatedAccount() {
	ctx := context.Background()
	req := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, req))

	boom := errors.New("ledger offline")
	var createdNumber string
	_, err := s.store.Decide(ctx, req.ID, func(ctx context.Context, r *models.AccountRequest, accounts store.AccountCreator) error {
		number, createErr := accounts.Create(ctx, &models.Account{
			HolderName:  r.ApplicantName,
			AccountType: r.AccountType,
			Balance:     r.InitialDeposit,
			RequestID:   r.ID,
			CreatedAt:   time.Now().UTC(),
		})
		if createErr != nil {
			return createErr
		}
		createdNumber = number
		return boom
	})
	s.ErrorIs(err, boom)

	// Neither the account nor the request mutation survived.
	_, err = s.store.GetAccount(ctx, createdNumber)
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestPending, found.Status)
}

func (s *PostgresWorkflowStoreSuite) TestDecideUnknownRequest() {
	called := false
	_, err := s.store.Decide(context.Background(), uuid.New(), func(context.Context, *models.AccountRequest, store.AccountCreator) error {
		called = true
		return nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.False(called, "callback must not run for an unknown request")
}

func (s *PostgresWorkflowStoreSuite) TestConcurrentDecisionsSingleWinner() {
	ctx := context.Background()
	req := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, req))

	const goroutines = 12
	var wg sync.WaitGroup
	var wins, losses, unexpected atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Decide(ctx, req.ID, approve(uuid.New()))
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				losses.Add(1)
			default:
				unexpected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one decision should commit")
	s.Equal(int32(goroutines-1), losses.Load(), "losers should observe the terminal status")
	s.Equal(int32(0), unexpected.Load())

	// Exactly one account exists for the request.
	var count int
	s.Require().NoError(s.pg.Pool.QueryRow(ctx, "SELECT count(*) FROM accounts WHERE request_id = $1", req.ID).Scan(&count))
	s.Equal(1, count)
}

func (s *PostgresWorkflowStoreSuite) TestAccountNumbersAreSequential() {
	ctx := context.Background()

	first := s.newRequest()
	second := s.newRequest()
	s.Require().NoError(s.store.CreateRequest(ctx, first))
	s.Require().NoError(s.store.CreateRequest(ctx, second))

	a, err := s.store.Decide(ctx, first.ID, approve(uuid.New()))
	s.Require().NoError(err)
	b, err := s.store.Decide(ctx, second.ID, approve(uuid.New()))
	s.Require().NoError(err)

	s.NotEqual(a.AccountNumber, b.AccountNumber)
	s.Len(a.AccountNumber, 10)
	s.Len(b.AccountNumber, 10)
}

func (s *PostgresWorkflowStoreSuite) TestListOrdering() {
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		req := s.newRequest()
		req.SubmittedAt = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.CreateRequest(ctx, req))
		ids = append(ids, req.ID)
	}

	pending, err := s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)
	s.Equal(ids[0], pending[0].ID, "pending queue is oldest first")
	s.Equal(ids[2], pending[2].ID)

	all, err := s.store.ListAll(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(ids[2], all[0].ID, "history is newest first")
	s.Equal(ids[1], all[1].ID)

	// Approved requests leave the pending queue.
	_, err = s.store.Decide(ctx, ids[0], approve(uuid.New()))
	s.Require().NoError(err)
	pending, err = s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Len(pending, 2)
}
