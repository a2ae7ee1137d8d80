// Package service implements the account provisioning workflow: the PENDING
// to APPROVED/REJECTED state machine, the atomic approval transaction, and
// the best-effort ledger and notification side effects that follow a commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"corebank/internal/audit"
	identitymodels "corebank/internal/identity/models"
	"corebank/internal/notify"
	"corebank/internal/platform/metrics"
	"corebank/internal/provisioning/credential"
	"corebank/internal/provisioning/models"
	"corebank/internal/provisioning/store"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

var tracer = otel.Tracer("corebank/provisioning")

// approvals and rejections both require at least this role.
const requiredRole = identitymodels.RoleOfficer

// Ledger records activity entries. Recording is best-effort and never
// returns an error to the caller.
type Ledger interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Actor identifies the staff member performing a decision.
type Actor struct {
	ID   uuid.UUID
	Role identitymodels.Role
}

// Service owns AccountRequest state transitions. No other component mutates
// a request.
type Service struct {
	store    store.Store
	creds    *credential.Generator
	notifier notify.Notifier
	ledger   Ledger
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLedger(ledger Ledger) Option {
	return func(s *Service) {
		s.ledger = ledger
	}
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func New(st store.Store, creds *credential.Generator, opts ...Option) *Service {
	s := &Service{store: st, creds: creds}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateRequestInput carries the applicant's intake fields.
type CreateRequestInput struct {
	ApplicantName  string
	Email          string
	Phone          string
	Address        string
	DocumentType   string
	DocumentNumber string
	AccountType    models.AccountType
	InitialDeposit int64
}

// CreateRequest opens a new PENDING request. Duplicate submissions are not
// deduplicated; each call produces a fresh request.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.AccountRequest, error) {
	req, err := models.NewAccountRequest(
		uuid.New(), input.ApplicantName, input.Email, input.Phone, input.Address,
		input.DocumentType, input.DocumentNumber, input.AccountType, input.InitialDeposit,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "create account request")
	}

	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	s.record(ctx, audit.ActionCreateRequest, "", audit.OutcomeSuccess,
		fmt.Sprintf("request=%s applicant=%s", req.ID, req.ApplicantName))
	return req, nil
}

// ApprovalResult is returned after a committed approval. The credential is
// surfaced exactly once, here; it is never persisted or logged.
type ApprovalResult struct {
	AccountNumber     string
	OneTimeCredential string
}

// Approve turns a PENDING request into a live, funded account. Credential
// generation, account creation and the request update commit as one unit;
// any failure inside rolls everything back and the request stays PENDING.
// The activity entry and applicant notification run after the commit and
// cannot undo it.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, actor Actor) (*ApprovalResult, error) {
	ctx, span := tracer.Start(ctx, "provisioning.approve", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	if err := s.requireDecider(actor); err != nil {
		s.recordAs(ctx, actor.ID, audit.ActionApproveRequest, "", audit.OutcomeFailed,
			fmt.Sprintf("request=%s permission denied", requestID))
		return nil, err
	}

	oneTime, err := s.creds.Generate()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	done := s.observeApprove()

	now := requestcontext.Now(ctx)
	updated, err := s.store.Decide(ctx, requestID, func(ctx context.Context, req *models.AccountRequest, accounts store.AccountCreator) error {
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
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		return req.ApplyApproval(actor.ID, number, now)
	})
	done()
	if err != nil {
		span.RecordError(err)
		return nil, s.mapDecideErr(err, "approve request")
	}

	span.SetAttributes(attribute.String("account.number", updated.AccountNumber))
	if s.metrics != nil {
		s.metrics.RequestsApproved.Inc()
	}

	s.recordAs(ctx, actor.ID, audit.ActionApproveRequest, updated.AccountNumber, audit.OutcomeSuccess,
		fmt.Sprintf("request=%s actor=%s", updated.ID, actor.ID))
	if s.notifier != nil {
		if ok := s.notifier.NotifyApproval(ctx, updated.Email, updated.AccountNumber, oneTime); !ok {
			s.logger.WarnContext(ctx, "approval notification failed",
				"request_id", updated.ID, "account_number", updated.AccountNumber)
		}
	}

	return &ApprovalResult{AccountNumber: updated.AccountNumber, OneTimeCredential: oneTime}, nil
}

// Reject moves a PENDING request to REJECTED with the reviewer's remarks.
// No account or credential is ever produced.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, actor Actor, remarks string) (*models.AccountRequest, error) {
	ctx, span := tracer.Start(ctx, "provisioning.reject", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	if err := s.requireDecider(actor); err != nil {
		s.recordAs(ctx, actor.ID, audit.ActionRejectRequest, "", audit.OutcomeFailed,
			fmt.Sprintf("request=%s permission denied", requestID))
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Decide(ctx, requestID, func(_ context.Context, req *models.AccountRequest, _ store.AccountCreator) error {
		return req.ApplyRejection(actor.ID, remarks, now)
	})
	if err != nil {
		span.RecordError(err)
		return nil, s.mapDecideErr(err, "reject request")
	}

	if s.metrics != nil {
		s.metrics.RequestsRejected.Inc()
	}

	s.recordAs(ctx, actor.ID, audit.ActionRejectRequest, "", audit.OutcomeSuccess,
		fmt.Sprintf("request=%s actor=%s remarks=%s", updated.ID, actor.ID, remarks))
	if s.notifier != nil {
		if ok := s.notifier.NotifyRejection(ctx, updated.Email, updated.AccountNumber, remarks); !ok {
			s.logger.WarnContext(ctx, "rejection notification failed", "request_id", updated.ID)
		}
	}

	return updated, nil
}

// ListPending returns the review queue in submission order.
func (s *Service) ListPending(ctx context.Context) ([]*models.AccountRequest, error) {
	reqs, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list pending requests")
	}
	return reqs, nil
}

// ListAll returns up to limit requests, most recent first.
func (s *Service) ListAll(ctx context.Context, limit int) ([]*models.AccountRequest, error) {
	reqs, err := s.store.ListAll(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list requests")
	}
	return reqs, nil
}

// GetByID returns one request.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.AccountRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "look up request")
	}
	return req, nil
}

// GetAccount returns a provisioned account by number.
func (s *Service) GetAccount(ctx context.Context, number string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "look up account")
	}
	return account, nil
}

func (s *Service) requireDecider(actor Actor) error {
	if !actor.Role.AtLeast(requiredRole) {
		return dErrors.Newf(dErrors.CodePermissionDenied, "deciding a request requires %s role or above", requiredRole)
	}
	return nil
}

func (s *Service) mapDecideErr(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account request not found")
	case dErrors.HasCode(err, dErrors.CodeInvalidState),
		dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodePersistence, op)
	}
}

func (s *Service) observeApprove() func() {
	if s.metrics == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(s.metrics.ApproveDuration)
	return func() { timer.ObserveDuration() }
}

func (s *Service) record(ctx context.Context, action audit.Action, targetAccount string, outcome audit.Outcome, details string) {
	s.recordAs(ctx, requestcontext.ActorID(ctx), action, targetAccount, outcome, details)
}

// recordAs attributes a decision entry to the explicit acting staff rather
// than whatever actor the context happens to carry; in-process callers do
// not always populate the request context.
func (s *Service) recordAs(ctx context.Context, actorID uuid.UUID, action audit.Action, targetAccount string, outcome audit.Outcome, details string) {
	if s.ledger == nil {
		return
	}
	s.ledger.Record(ctx, audit.Entry{
		Kind:          audit.KindActivity,
		ActorID:       actorID,
		ActorType:     requestcontext.ActorType(ctx),
		Action:        action,
		TargetAccount: targetAccount,
		Module:        "provisioning",
		Details:       details,
		Outcome:       outcome,
	})
}
