package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	identitymodels "corebank/internal/identity/models"
	identityservice "corebank/internal/identity/service"
	"corebank/internal/identity/session"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/requestcontext"
	"corebank/pkg/testutil"
)

func TestRequestScope(t *testing.T) {
	var seen struct {
		requestID  string
		clientIP   string
		userAgent  string
		deviceName string
	}
	handler := requestScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seen.requestID = requestcontext.RequestID(ctx)
		seen.clientIP = requestcontext.ClientIP(ctx)
		seen.userAgent = requestcontext.UserAgent(ctx)
		seen.deviceName = requestcontext.DeviceName(ctx)
		w.WriteHeader(http.StatusNoContent)
	}))

	testutil.Given(t, "a request with correlation and client headers", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/healthz")
		req.Header.Set("X-Request-Id", "req-42")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		rr := testutil.DoRequest(handler, req)

		assert.Equal(t, "req-42", seen.requestID)
		assert.Equal(t, "req-42", rr.Header().Get("X-Request-Id"), "correlation id is echoed")
		assert.Equal(t, "203.0.113.9", seen.clientIP, "first forwarded hop wins")
		assert.Contains(t, seen.userAgent, "Chrome")
		assert.Equal(t, "Chrome on Mac OS X", seen.deviceName)
	})

	testutil.Given(t, "a request with no correlation header", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/healthz")
		rr := testutil.DoRequest(handler, req)

		assert.NotEmpty(t, seen.requestID, "a fresh id is minted")
		assert.Equal(t, seen.requestID, rr.Header().Get("X-Request-Id"))
	})
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientIP(req))
}

// stubAuthService answers RequirePermission from a fixed role table keyed by
// session token id.
type stubAuthService struct {
	roles map[string]identitymodels.Role
}

func (s *stubAuthService) Authenticate(context.Context, string, string) (*identityservice.LoginResult, error) {
	return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) ChangePassword(context.Context, string, string) error { return nil }

func (s *stubAuthService) CheckSession(_ context.Context, tokenID string) bool {
	_, ok := s.roles[tokenID]
	return ok
}

func (s *stubAuthService) RequirePermission(_ context.Context, tokenID string, required identitymodels.Role) (*session.Session, error) {
	role, ok := s.roles[tokenID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if !role.AtLeast(required) {
		return nil, dErrors.Newf(dErrors.CodePermissionDenied, "requires %s role or above", required)
	}
	return &session.Session{TokenID: tokenID, Role: string(role)}, nil
}

func TestRequireRole(t *testing.T) {
	mw := &authMiddleware{identity: &stubAuthService{roles: map[string]identitymodels.Role{
		"teller-session":  identitymodels.RoleTeller,
		"manager-session": identitymodels.RoleManager,
	}}}
	handler := mw.requireRole(identitymodels.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("sufficient role passes", func(t *testing.T) {
		req := testutil.WithSessionID(testutil.NewRequest(t, http.MethodGet, "/staff"), "manager-session")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("insufficient role is forbidden", func(t *testing.T) {
		req := testutil.WithSessionID(testutil.NewRequest(t, http.MethodGet, "/staff"), "teller-session")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "permission_denied")
	})

	t.Run("no session is unauthorized", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/staff")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "well formed", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer tok", want: "tok"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}
