package testutil

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"corebank/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// Invalid UUIDs are silently ignored.
func WithActor(req *http.Request, actorID, actorType string) *http.Request {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), id, actorType))
}

// WithSessionID attaches a session token identifier to the request context.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithFrozenTime pins the request clock so timestamp assertions are exact.
func WithFrozenTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
