// Package httptransport is the thin HTTP layer over the banking core. It
// delegates to domain services without embedding business logic so transport
// concerns stay isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identitymodels "corebank/internal/identity/models"
	"corebank/internal/identity/token"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Identity      AuthService
	IdentityAdmin IdentityAdminService
	Workflow      ProvisioningService
	Ledger        LedgerReader
	Tokens        *token.JWTService
	Logger        *slog.Logger
	Health        func() error
}

// NewRouter wires all endpoints under /api/v1. Role gates, outermost first:
// any authenticated session for the review surface (the workflow enforces
// OFFICER on decisions itself), MANAGER for staff management and ledger
// reads, ADMIN for the admin tier.
func NewRouter(deps Deps) http.Handler {
	auth := &authMiddleware{tokens: deps.Tokens, identity: deps.Identity}

	authHandler := NewAuthHandler(deps.Identity)
	identityHandler := NewIdentityHandler(deps.IdentityAdmin)
	requestHandler := NewRequestHandler(deps.Workflow, deps.Identity)
	auditHandler := NewAuditHandler(deps.Ledger)

	r := chi.NewRouter()
	r.Use(requestScope)
	r.Use(requestLogger(deps.Logger))
	r.Use(recoverer(deps.Logger))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: intake, self-registration, login.
		authHandler.RegisterPublic(r)
		identityHandler.RegisterPublic(r)
		requestHandler.RegisterIntake(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.authenticate)

			authHandler.RegisterAuthenticated(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.requireRole(identitymodels.RoleTeller))
				requestHandler.RegisterReview(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.requireRole(identitymodels.RoleManager))
				identityHandler.RegisterManagement(r)
				auditHandler.Register(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.requireRole(identitymodels.RoleAdmin))
				identityHandler.RegisterAdminManagement(r)
			})
		})
	})

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
