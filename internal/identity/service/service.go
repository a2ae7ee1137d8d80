// Package service implements the identity and session authority: credential
// verification, the sliding-window session contract, role gating, and the
// management of staff and admin identities.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"corebank/internal/audit"
	"corebank/internal/identity/lockout"
	"corebank/internal/identity/models"
	"corebank/internal/identity/password"
	"corebank/internal/identity/session"
	"corebank/internal/identity/store"
	"corebank/internal/identity/token"
	"corebank/internal/platform/metrics"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// Ledger records activity and audit entries. Recording is best-effort and
// never returns an error to the caller.
type Ledger interface {
	Record(ctx context.Context, entry audit.Entry)
}

const minPasswordLength = 8

// tokenLifetime caps the bearer token at a full shift. Actual liveness is
// governed by the sliding session idle window, which is much shorter; the
// token only has to outlive a session that stays continuously active.
const tokenLifetime = 12 * time.Hour

// Service is the identity authority. All privileged identity operations flow
// through it; stores only persist.
type Service struct {
	staff    store.StaffStore
	admins   store.AdminStore
	sessions *session.Manager
	tokens   *token.JWTService
	hasher   password.Hasher

	sessionTTL time.Duration
	ledger     Ledger
	guard      *lockout.Guard
	logger     *slog.Logger
	metrics    *metrics.Metrics
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

// WithLockout enables failed-login throttling. Without it, repeated failures
// are only audited.
func WithLockout(guard *lockout.Guard) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

func New(
	staff store.StaffStore,
	admins store.AdminStore,
	sessions *session.Manager,
	tokens *token.JWTService,
	hasher password.Hasher,
	sessionTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		staff:      staff,
		admins:     admins,
		sessions:   sessions,
		tokens:     tokens,
		hasher:     hasher,
		sessionTTL: sessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// LoginResult is what a successful authentication hands back: the signed
// session token and a hash-free view of the identity.
type LoginResult struct {
	Token    string
	TokenID  string
	Identity models.IdentityView
}

// Authenticate verifies a username and password against staff first, then
// admins. Failures are uniform: the caller cannot distinguish an unknown
// username from a bad password or an inactive identity. Every attempt lands
// in the activity trail.
func (s *Service) Authenticate(ctx context.Context, username, plaintext string) (*LoginResult, error) {
	if username == "" || plaintext == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username and password are required")
	}

	if s.guard != nil {
		if err := s.guard.Check(ctx, username, requestcontext.Now(ctx)); err != nil {
			if dErrors.HasCode(err, dErrors.CodePersistence) {
				return nil, err
			}
			s.recordLogin(ctx, uuid.Nil, "", username, audit.OutcomeFailed, "locked out")
			return nil, err
		}
	}

	view, hash, err := s.lookupByUsername(ctx, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodePersistence) {
			return nil, err
		}
		s.recordLogin(ctx, uuid.Nil, "", username, audit.OutcomeFailed, "unknown or inactive identity")
		return nil, s.loginFailure(ctx, username)
	}

	match, err := s.hasher.Compare(hash, plaintext)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verify credentials")
	}
	if !match {
		s.recordLogin(ctx, view.ID, string(view.ActorType), username, audit.OutcomeFailed, "password mismatch")
		return nil, s.loginFailure(ctx, username)
	}

	if s.guard != nil {
		if err := s.guard.Clear(ctx, username); err != nil {
			s.logger.WarnContext(ctx, "lockout clear failed", "username", username, "error", err)
		}
	}

	if err := s.markLastLogin(ctx, view); err != nil {
		// Non-fatal: the login proceeds, the bookkeeping gap is logged.
		s.logger.WarnContext(ctx, "last-login update failed", "username", username, "error", err)
	}

	now := requestcontext.Now(ctx)
	signed, jti, err := s.tokens.GenerateSessionToken(view.ID, string(view.ActorType), string(view.Role), tokenLifetime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint session token")
	}

	sess := &session.Session{
		TokenID:      jti,
		ActorID:      view.ID,
		ActorType:    string(view.ActorType),
		Role:         string(view.Role),
		DeviceName:   requestcontext.DeviceName(ctx),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Establish(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "establish session")
	}

	s.recordLogin(ctx, view.ID, string(view.ActorType), username, audit.OutcomeSuccess, "")
	if s.metrics != nil {
		s.metrics.LoginSuccess.Inc()
	}

	return &LoginResult{Token: signed, TokenID: jti, Identity: view}, nil
}

// lookupByUsername resolves a username across both identity tiers, returning
// the view and stored hash. Only ACTIVE identities resolve.
func (s *Service) lookupByUsername(ctx context.Context, username string) (models.IdentityView, string, error) {
	staff, err := s.staff.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !staff.IsActive() {
			return models.IdentityView{}, "", dErrors.New(dErrors.CodeUnauthorized, "identity is not active")
		}
		return staff.View(), staff.PasswordHash, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return models.IdentityView{}, "", dErrors.Wrap(err, dErrors.CodePersistence, "look up staff identity")
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !admin.IsActive() {
			return models.IdentityView{}, "", dErrors.New(dErrors.CodeUnauthorized, "identity is not active")
		}
		return admin.View(), admin.PasswordHash, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return models.IdentityView{}, "", dErrors.New(dErrors.CodeUnauthorized, "unknown identity")
	default:
		return models.IdentityView{}, "", dErrors.Wrap(err, dErrors.CodePersistence, "look up admin identity")
	}
}

// loginFailure normalizes every authentication failure to the same coded
// error so responses cannot be used to enumerate usernames.
func (s *Service) loginFailure(ctx context.Context, username string) error {
	if s.guard != nil {
		if err := s.guard.RecordFailure(ctx, username, requestcontext.Now(ctx)); err != nil {
			s.logger.WarnContext(ctx, "lockout bookkeeping failed", "username", username, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.LoginFailure.Inc()
	}
	s.logger.InfoContext(ctx, "login rejected", "username", username)
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *Service) markLastLogin(ctx context.Context, view models.IdentityView) error {
	now := requestcontext.Now(ctx)
	switch view.ActorType {
	case models.ActorStaff:
		staff, err := s.staff.FindByID(ctx, view.ID)
		if err != nil {
			return err
		}
		staff.LastLogin = &now
		return s.staff.Update(ctx, staff)
	case models.ActorAdmin:
		admin, err := s.admins.FindByID(ctx, view.ID)
		if err != nil {
			return err
		}
		admin.LastLogin = &now
		return s.admins.Update(ctx, admin)
	default:
		return nil
	}
}

func (s *Service) recordLogin(ctx context.Context, actorID uuid.UUID, actorType, username string, outcome audit.Outcome, details string) {
	if s.ledger == nil {
		return
	}
	if details != "" {
		details = "username=" + username + " " + details
	} else {
		details = "username=" + username
	}
	if name := requestcontext.DeviceName(ctx); name != "" {
		details += " device=" + name
	}
	s.ledger.Record(ctx, audit.Entry{
		Kind:      audit.KindActivity,
		ActorID:   actorID,
		ActorType: actorType,
		Action:    audit.ActionLogin,
		Module:    "identity",
		Details:   details,
		Outcome:   outcome,
	})
}

// Logout tears down the session for the given token ID. Logging out an
// already-expired or unknown session is not an error.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, tokenID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodePersistence, "look up session")
	}

	if err := s.sessions.Teardown(ctx, tokenID); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "tear down session")
	}

	if sess != nil && s.ledger != nil {
		s.ledger.Record(ctx, audit.Entry{
			Kind:      audit.KindActivity,
			ActorID:   sess.ActorID,
			ActorType: sess.ActorType,
			Action:    audit.ActionLogout,
			Module:    "identity",
			Outcome:   audit.OutcomeSuccess,
		})
	}
	return nil
}

// CheckSession reports whether the session behind tokenID is still live. A
// positive answer refreshes the sliding idle window as a side effect.
func (s *Service) CheckSession(ctx context.Context, tokenID string) bool {
	return s.sessions.IsActive(ctx, tokenID, requestcontext.Now(ctx))
}

// RequirePermission enforces the two-step gate for privileged operations:
// a live session first, then the role hierarchy. The session check extends
// the idle window whether or not the role check passes.
func (s *Service) RequirePermission(ctx context.Context, tokenID string, required models.Role) (*session.Session, error) {
	if !s.sessions.IsActive(ctx, tokenID, requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}

	sess, err := s.sessions.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no active session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "look up session")
	}

	if !models.Role(sess.Role).AtLeast(required) {
		return nil, dErrors.Newf(dErrors.CodePermissionDenied, "requires %s role or above", required)
	}
	return sess, nil
}
