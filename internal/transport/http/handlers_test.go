package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"corebank/internal/audit"
	auditstore "corebank/internal/audit/store"
	identitymodels "corebank/internal/identity/models"
	identityservice "corebank/internal/identity/service"
	"corebank/internal/identity/session"
	identitystore "corebank/internal/identity/store"
	"corebank/internal/identity/token"
	"corebank/internal/notify"
	"corebank/internal/provisioning/credential"
	provisioningservice "corebank/internal/provisioning/service"
	provisioningstore "corebank/internal/provisioning/store"
)

type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (fakeHasher) Compare(hash, plaintext string) (bool, error) {
	return hash == "hashed:"+plaintext, nil
}

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	staffStore := identitystore.NewInMemoryStaffStore()
	adminStore := identitystore.NewInMemoryAdminStore()
	sessions := session.NewManager(session.NewInMemoryStore(), 15*time.Minute)
	tokens := token.NewJWTService("handler-test-key", "corebank")
	recorder := audit.NewRecorder(auditstore.NewInMemoryStore(), audit.WithLogger(logger))

	identity := identityservice.New(
		staffStore, adminStore, sessions, tokens, fakeHasher{}, 15*time.Minute,
		identityservice.WithLogger(logger),
		identityservice.WithLedger(recorder),
	)

	creds, err := credential.New("BANK", nil)
	s.Require().NoError(err)
	workflow := provisioningservice.New(
		provisioningstore.NewInMemoryStore(), creds,
		provisioningservice.WithLogger(logger),
		provisioningservice.WithLedger(recorder),
		provisioningservice.WithNotifier(notify.NewLogNotifier(logger)),
	)

	s.seed(staffStore, adminStore)

	router := NewRouter(Deps{
		Identity:      identity,
		IdentityAdmin: identity,
		Workflow:      workflow,
		Ledger:        recorder,
		Tokens:        tokens,
		Logger:        logger,
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) seed(staffStore *identitystore.InMemoryStaffStore, adminStore *identitystore.InMemoryAdminStore) {
	now := time.Now()
	for username, role := range map[string]identitymodels.Role{
		"teller":  identitymodels.RoleTeller,
		"officer": identitymodels.RoleOfficer,
		"manager": identitymodels.RoleManager,
	} {
		staff, err := identitymodels.NewStaffIdentity(
			uuid.New(), username, "hashed:"+username+"-pass", username, role, uuid.Nil, false, now)
		s.Require().NoError(err)
		s.Require().NoError(staffStore.Create(context.Background(), staff))
	}

	admin, err := identitymodels.NewAdminIdentity(
		uuid.New(), "root", "hashed:root-pass", "Root", true, uuid.Nil, now)
	s.Require().NoError(err)
	s.Require().NoError(adminStore.Create(context.Background(), admin))
}

func (s *HandlerSuite) do(method, path, tokenValue string, body any) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tokenValue != "" {
		req.Header.Set("Authorization", "Bearer "+tokenValue)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	resp.Body.Close()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			payload = map[string]any{"_raw": string(raw)}
		}
	}
	return resp, payload
}

func (s *HandlerSuite) login(username string) string {
	resp, payload := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": username + "-pass",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	tokenValue, _ := payload["token"].(string)
	s.Require().NotEmpty(tokenValue)
	return tokenValue
}

func (s *HandlerSuite) submitRequest() string {
	resp, payload := s.do(http.MethodPost, "/api/v1/requests", "", map[string]any{
		"applicant_name":  "Alice",
		"email":           "alice@example.com",
		"phone":           "555-0100",
		"address":         "1 Main St",
		"document_type":   "PASSPORT",
		"document_number": "P123456",
		"account_type":    "SAVINGS",
		"initial_deposit": 5000,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	id, _ := payload["id"].(string)
	s.Require().NotEmpty(id)
	return id
}

func (s *HandlerSuite) TestLogin() {
	s.Run("valid credentials", func() {
		s.login("officer")
	})

	s.Run("wrong password", func() {
		resp, payload := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "officer", "password": "wrong",
		})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("unauthorized", payload["error"])
	})
}

func (s *HandlerSuite) TestReviewSurfaceRequiresSession() {
	resp, _ := s.do(http.MethodGet, "/api/v1/requests/pending", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/requests/pending", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestApprovalFlow() {
	requestID := s.submitRequest()
	officer := s.login("officer")

	resp, payload := s.do(http.MethodPost, "/api/v1/requests/"+requestID+"/approve", officer, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	accountNumber, _ := payload["account_number"].(string)
	s.NotEmpty(accountNumber)
	oneTime, _ := payload["one_time_credential"].(string)
	s.Len(oneTime, 11)

	resp, payload = s.do(http.MethodGet, "/api/v1/requests/"+requestID, officer, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("APPROVED", payload["status"])
	s.Equal(accountNumber, payload["account_number"])

	// Second approval hits the terminal state.
	resp, payload = s.do(http.MethodPost, "/api/v1/requests/"+requestID+"/approve", officer, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("invalid_state", payload["error"])
}

func (s *HandlerSuite) TestTellerCannotApprove() {
	requestID := s.submitRequest()
	teller := s.login("teller")

	// Tellers can see the queue but not decide.
	resp, _ := s.do(http.MethodGet, "/api/v1/requests/pending", teller, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, payload := s.do(http.MethodPost, "/api/v1/requests/"+requestID+"/approve", teller, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("permission_denied", payload["error"])
}

func (s *HandlerSuite) TestRejectionFlow() {
	requestID := s.submitRequest()
	officer := s.login("officer")

	resp, payload := s.do(http.MethodPost, "/api/v1/requests/"+requestID+"/reject", officer, map[string]string{
		"remarks": "Invalid ID",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("REJECTED", payload["status"])
	s.Equal("Invalid ID", payload["remarks"])
	s.Nil(payload["account_number"])

	resp, _ = s.do(http.MethodPost, "/api/v1/requests/"+requestID+"/reject", officer, map[string]string{
		"remarks": "again",
	})
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *HandlerSuite) TestAuditGate() {
	officer := s.login("officer")
	manager := s.login("manager")

	resp, _ := s.do(http.MethodGet, "/api/v1/audit", officer, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/audit", manager, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/audit/failed-logins?limit=10", manager, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *HandlerSuite) TestAdminSurface() {
	root := s.login("root")
	manager := s.login("manager")

	s.Run("manager cannot reach admin tier", func() {
		resp, _ := s.do(http.MethodPost, "/api/v1/admins", manager, map[string]any{
			"username": "new-admin", "password": "admin-pass1",
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	var createdID string
	s.Run("super admin creates an admin", func() {
		resp, payload := s.do(http.MethodPost, "/api/v1/admins", root, map[string]any{
			"username": "new-admin", "password": "admin-pass1", "display_name": "New Admin",
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		createdID, _ = payload["id"].(string)
		s.NotEmpty(createdID)
	})

	s.Run("deletes the created admin", func() {
		resp, _ := s.do(http.MethodDelete, "/api/v1/admins/"+createdID, root, nil)
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestLogout() {
	officer := s.login("officer")

	resp, _ := s.do(http.MethodPost, "/api/v1/auth/logout", officer, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	// Token still parses but the session is gone.
	resp, _ = s.do(http.MethodGet, "/api/v1/requests/pending", officer, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestPasswordChangeRequiresLiveSession() {
	officer := s.login("officer")

	resp, _ := s.do(http.MethodPost, "/api/v1/auth/logout", officer, nil)
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	// The token has not expired, but its session is gone: the credential
	// must not rotate.
	resp, _ = s.do(http.MethodPost, "/api/v1/auth/password", officer, map[string]string{
		"current_password": "officer-pass", "new_password": "rotated-pass-1",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "officer", "password": "officer-pass",
	})
	s.Equal(http.StatusOK, resp.StatusCode, "old password still works, nothing rotated")
}

func (s *HandlerSuite) TestSelfRegistrationStartsPending() {
	resp, payload := s.do(http.MethodPost, "/api/v1/staff/register", "", map[string]any{
		"username": "walkin", "password": "walkin-pass", "display_name": "Walk In", "role": "TELLER",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal("PENDING", payload["status"])

	resp, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "walkin", "password": "walkin-pass",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestStaffManagement() {
	manager := s.login("manager")

	resp, payload := s.do(http.MethodPost, "/api/v1/staff", manager, map[string]any{
		"username": "newhire", "password": "initial-pass", "display_name": "New Hire", "role": "TELLER",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal("ACTIVE", payload["status"])
	staffID, _ := payload["id"].(string)

	resp, payload = s.do(http.MethodPut, fmt.Sprintf("/api/v1/staff/%s/status", staffID), manager, map[string]string{
		"status": "SUSPENDED",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("SUSPENDED", payload["status"])

	resp, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "newhire", "password": "initial-pass",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestMalformedBody() {
	resp, payload := s.do(http.MethodPost, "/api/v1/requests", "", map[string]any{
		"applicant_name": "Alice",
		"unexpected":     true,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("validation", payload["error"])
}
