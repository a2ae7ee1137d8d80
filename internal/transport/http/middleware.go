package httptransport

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"corebank/internal/identity/device"
	identitymodels "corebank/internal/identity/models"
	"corebank/internal/identity/token"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/requestcontext"
)

// requestScope stamps the request-scoped values every downstream layer
// reads from context: correlation ID, clock, client IP, user agent, and the
// parsed device name.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), r.UserAgent())
		ctx = requestcontext.WithDeviceName(ctx, device.DisplayName(r.UserAgent()))

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestcontext.RequestID(r.Context()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic", "panic", rec, "path", r.URL.Path)
					writeError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware validates the bearer token and verifies the server-side
// session behind its jti is still live; the check itself extends the idle
// window. Role gating happens per route group with requireRole.
type authMiddleware struct {
	tokens   *token.JWTService
	identity AuthService
}

func (m *authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
			return
		}

		claims, err := m.tokens.ValidateToken(raw)
		if err != nil {
			writeError(w, err)
			return
		}

		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims"))
			return
		}

		ctx := requestcontext.WithActor(r.Context(), actorID, claims.ActorType)
		ctx = requestcontext.WithSessionID(ctx, claims.ID)

		// A parseable token is not enough: the server-side session behind
		// its jti must still be live. Logout and suspension revoke sessions
		// long before the token itself expires.
		if !m.identity.CheckSession(ctx, claims.ID) {
			writeError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route group on a live session plus the role hierarchy.
func (m *authMiddleware) requireRole(required identitymodels.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenID := requestcontext.SessionID(r.Context())
			if _, err := m.identity.RequirePermission(r.Context(), tokenID, required); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
