package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"corebank/internal/audit"
	identitymodels "corebank/internal/identity/models"
	"corebank/internal/notify/mocks"
	"corebank/internal/provisioning/credential"
	"corebank/internal/provisioning/models"
	"corebank/internal/provisioning/store"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/requestcontext"
)

type memoryLedger struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (l *memoryLedger) Record(_ context.Context, entry audit.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *memoryLedger) byAction(action audit.Action) []audit.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []audit.Entry
	for _, e := range l.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type WorkflowSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.InMemoryStore
	notifier *mocks.MockNotifier
	ledger   *memoryLedger
	svc      *Service
	officer  Actor
	now      time.Time
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemoryStore()
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.ledger = &memoryLedger{}
	s.officer = Actor{ID: uuid.New(), Role: identitymodels.RoleOfficer}
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	creds, err := credential.New("BANK", nil)
	s.Require().NoError(err)
	s.svc = New(s.store, creds,
		WithLedger(s.ledger),
		WithNotifier(s.notifier),
	)
}

func (s *WorkflowSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *WorkflowSuite) submit(name string) *models.AccountRequest {
	req, err := s.svc.CreateRequest(s.ctx(), CreateRequestInput{
		ApplicantName:  name,
		Email:          strings.ToLower(name) + "@example.com",
		Phone:          "555-0100",
		Address:        "1 Main St",
		DocumentType:   "PASSPORT",
		DocumentNumber: "P123456",
		AccountType:    models.AccountSavings,
		InitialDeposit: 5000,
	})
	s.Require().NoError(err)
	return req
}

func (s *WorkflowSuite) TestDecisionEntriesCarryTheDecidingActor() {
	req := s.submit("Alice")
	s.notifier.EXPECT().NotifyApproval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true)

	// The context deliberately carries no actor: an in-process caller that
	// skips the request plumbing must still be attributed correctly.
	_, err := s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().NoError(err)

	entries := s.ledger.byAction(audit.ActionApproveRequest)
	s.Require().Len(entries, 1)
	s.Equal(s.officer.ID, entries[0].ActorID)

	teller := Actor{ID: uuid.New(), Role: identitymodels.RoleTeller}
	other := s.submit("Bob")
	_, err = s.svc.Approve(s.ctx(), other.ID, teller)
	s.Require().Error(err)

	entries = s.ledger.byAction(audit.ActionApproveRequest)
	s.Require().Len(entries, 2)
	s.Equal(teller.ID, entries[1].ActorID, "denied attempts name the denied actor")
	s.Equal(audit.OutcomeFailed, entries[1].Outcome)
}

func (s *WorkflowSuite) TestHappyPath() {
	req := s.submit("Alice")
	s.Equal(models.RequestPending, req.Status)

	s.notifier.EXPECT().
		NotifyApproval(gomock.Any(), "alice@example.com", gomock.Any(), gomock.Any()).
		Return(true)

	result, err := s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().NoError(err)
	s.NotEmpty(result.AccountNumber)
	s.Len(result.OneTimeCredential, 11)
	s.True(strings.HasPrefix(result.OneTimeCredential, "BANK"))

	stored, err := s.svc.GetByID(s.ctx(), req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, stored.Status)
	s.Equal(result.AccountNumber, stored.AccountNumber)
	s.Equal(s.officer.ID, stored.ProcessedBy)
	s.Require().NotNil(stored.ProcessedAt)

	account, err := s.svc.GetAccount(s.ctx(), result.AccountNumber)
	s.Require().NoError(err)
	s.Equal(int64(5000), account.Balance)
	s.Equal("Alice", account.HolderName)

	entries := s.ledger.byAction(audit.ActionApproveRequest)
	s.Require().Len(entries, 1)
	s.Equal(audit.OutcomeSuccess, entries[0].Outcome)
	s.Equal(result.AccountNumber, entries[0].TargetAccount)
	// The one-time credential never reaches the ledger.
	s.NotContains(entries[0].Details, result.OneTimeCredential)
}

func (s *WorkflowSuite) TestDoubleApproval() {
	req := s.submit("Alice")
	s.notifier.EXPECT().NotifyApproval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true)

	first, err := s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().NoError(err)

	_, err = s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	// Only one account exists for the request.
	account, err := s.svc.GetAccount(s.ctx(), first.AccountNumber)
	s.Require().NoError(err)
	s.Equal(req.ID, account.RequestID)
}

func (s *WorkflowSuite) TestConcurrentApprovalsSingleWinner() {
	req := s.submit("Alice")
	s.notifier.EXPECT().NotifyApproval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true)

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Approve(s.ctx(), req.ID, s.officer)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, invalidState int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case dErrors.HasCode(err, dErrors.CodeInvalidState):
			invalidState++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(attempts-1, invalidState)
}

func (s *WorkflowSuite) TestRejection() {
	req := s.submit("Alice")
	s.notifier.EXPECT().
		NotifyRejection(gomock.Any(), "alice@example.com", "", "Invalid ID").
		Return(true)

	updated, err := s.svc.Reject(s.ctx(), req.ID, s.officer, "Invalid ID")
	s.Require().NoError(err)
	s.Equal(models.RequestRejected, updated.Status)
	s.Equal("Invalid ID", updated.Remarks)
	s.Empty(updated.AccountNumber)

	// A rejected request can never be approved afterwards.
	_, err = s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	entries := s.ledger.byAction(audit.ActionRejectRequest)
	s.Require().Len(entries, 1)
	s.Equal(audit.OutcomeSuccess, entries[0].Outcome)
}

func (s *WorkflowSuite) TestTellerCannotDecide() {
	req := s.submit("Alice")
	teller := Actor{ID: uuid.New(), Role: identitymodels.RoleTeller}

	_, err := s.svc.Approve(s.ctx(), req.ID, teller)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	_, err = s.svc.Reject(s.ctx(), req.ID, teller, "nope")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	// The request is untouched and the denied attempts are on record.
	stored, err := s.svc.GetByID(s.ctx(), req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestPending, stored.Status)

	denied := s.ledger.byAction(audit.ActionApproveRequest)
	s.Require().Len(denied, 1)
	s.Equal(audit.OutcomeFailed, denied[0].Outcome)
}

func (s *WorkflowSuite) TestManagerCanDecide() {
	req := s.submit("Alice")
	manager := Actor{ID: uuid.New(), Role: identitymodels.RoleManager}
	s.notifier.EXPECT().NotifyApproval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true)

	_, err := s.svc.Approve(s.ctx(), req.ID, manager)
	s.Require().NoError(err)
}

func (s *WorkflowSuite) TestNotificationFailureDoesNotAffectOutcome() {
	req := s.submit("Alice")
	s.notifier.EXPECT().NotifyApproval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false)

	result, err := s.svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().NoError(err)

	stored, err := s.svc.GetByID(s.ctx(), req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, stored.Status)
	s.Equal(result.AccountNumber, stored.AccountNumber)
}

func (s *WorkflowSuite) TestCreateRequestValidation() {
	_, err := s.svc.CreateRequest(s.ctx(), CreateRequestInput{
		Email:       "no-name@example.com",
		AccountType: models.AccountSavings,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.CreateRequest(s.ctx(), CreateRequestInput{
		ApplicantName:  "Alice",
		Email:          "alice@example.com",
		DocumentType:   "PASSPORT",
		DocumentNumber: "P123456",
		AccountType:    "LOTTERY",
		InitialDeposit: 100,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *WorkflowSuite) TestApproveUnknownRequest() {
	_, err := s.svc.Approve(s.ctx(), uuid.New(), s.officer)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestDeterministicCredentialSource() {
	creds, err := credential.New("BANK", bytes.NewReader(bytes.Repeat([]byte{0}, 7)))
	s.Require().NoError(err)
	svc := New(s.store, creds)

	req := s.submit("Alice")
	result, err := svc.Approve(s.ctx(), req.ID, s.officer)
	s.Require().NoError(err)
	s.Equal("BANK!AAAAAA", result.OneTimeCredential)
}
