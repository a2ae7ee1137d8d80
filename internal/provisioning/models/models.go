// Package models holds the account request lifecycle and the account record
// produced by an approval. State transitions live on the types themselves so
// every store enforces the same rules.
package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "corebank/pkg/domain-errors"
)

// RequestStatus is the lifecycle state of an account request. APPROVED and
// REJECTED are terminal.
type RequestStatus string

const (
	RequestPending    RequestStatus = "PENDING"
	RequestProcessing RequestStatus = "PROCESSING"
	RequestApproved   RequestStatus = "APPROVED"
	RequestRejected   RequestStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is permitted.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// AccountType is the product the applicant asked for.
type AccountType string

const (
	AccountSavings AccountType = "SAVINGS"
	AccountCurrent AccountType = "CURRENT"
	AccountFixed   AccountType = "FIXED_DEPOSIT"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountSavings, AccountCurrent, AccountFixed:
		return true
	default:
		return false
	}
}

// AccountRequest is a customer's application to open an account.
//
// Invariants:
//   - AccountNumber is set iff Status == APPROVED
//   - ProcessedBy and ProcessedAt are set iff Status is terminal
//   - SubmittedAt is immutable after creation
//   - a terminal request is never reopened
type AccountRequest struct {
	ID             uuid.UUID
	ApplicantName  string
	Email          string
	Phone          string
	Address        string
	DocumentType   string
	DocumentNumber string
	AccountType    AccountType
	InitialDeposit int64 // minor units
	Status         RequestStatus
	SubmittedAt    time.Time
	ProcessedBy    uuid.UUID
	ProcessedAt    *time.Time
	Remarks        string
	AccountNumber  string
}

// NewAccountRequest validates the required identity fields and returns a
// PENDING request. Deeper KYC validation happens upstream of the core.
func NewAccountRequest(id uuid.UUID, applicantName, email, phone, address, docType, docNumber string, accountType AccountType, initialDeposit int64, now time.Time) (*AccountRequest, error) {
	switch {
	case applicantName == "":
		return nil, dErrors.New(dErrors.CodeValidation, "applicant name is required")
	case email == "":
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	case docType == "" || docNumber == "":
		return nil, dErrors.New(dErrors.CodeValidation, "identity document is required")
	case !accountType.IsValid():
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown account type %q", accountType)
	case initialDeposit < 0:
		return nil, dErrors.New(dErrors.CodeValidation, "initial deposit cannot be negative")
	}

	return &AccountRequest{
		ID:             id,
		ApplicantName:  applicantName,
		Email:          email,
		Phone:          phone,
		Address:        address,
		DocumentType:   docType,
		DocumentNumber: docNumber,
		AccountType:    accountType,
		InitialDeposit: initialDeposit,
		Status:         RequestPending,
		SubmittedAt:    now,
	}, nil
}

// CanDecide reports whether the request may still be approved or rejected.
func (r *AccountRequest) CanDecide() error {
	if r.Status != RequestPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "request %s already processed (status %s)", r.ID, r.Status)
	}
	return nil
}

// ApplyApproval moves a PENDING request to APPROVED with the provisioned
// account number.
func (r *AccountRequest) ApplyApproval(actorID uuid.UUID, accountNumber string, now time.Time) error {
	if err := r.CanDecide(); err != nil {
		return err
	}
	if accountNumber == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "approval requires an account number")
	}
	r.Status = RequestApproved
	r.ProcessedBy = actorID
	r.ProcessedAt = &now
	r.AccountNumber = accountNumber
	return nil
}

// ApplyRejection moves a PENDING request to REJECTED. No account number or
// credential is ever associated with a rejected request.
func (r *AccountRequest) ApplyRejection(actorID uuid.UUID, remarks string, now time.Time) error {
	if err := r.CanDecide(); err != nil {
		return err
	}
	r.Status = RequestRejected
	r.ProcessedBy = actorID
	r.ProcessedAt = &now
	r.Remarks = remarks
	return nil
}

// Account is the live, funded record produced by an approval. The number is
// assigned by the persistence layer inside the approval transaction.
type Account struct {
	Number      string
	HolderName  string
	Email       string
	Phone       string
	AccountType AccountType
	Balance     int64 // minor units
	RequestID   uuid.UUID
	CreatedAt   time.Time
}
