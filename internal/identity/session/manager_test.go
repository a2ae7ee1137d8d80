package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"corebank/pkg/platform/sentinel"
)

type ManagerSuite struct {
	suite.Suite
	store   *InMemoryStore
	manager *Manager
	ctx     context.Context
}

func (s *ManagerSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.manager = NewManager(s.store, 15*time.Minute)
	s.ctx = context.Background()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) establish(tokenID string, at time.Time) *Session {
	sess := &Session{
		TokenID:      tokenID,
		ActorID:      uuid.New(),
		ActorType:    "staff",
		Role:         "OFFICER",
		CreatedAt:    at,
		LastActivity: at,
	}
	s.Require().NoError(s.manager.Establish(s.ctx, sess))
	return sess
}

// TestSlidingWindow verifies the sliding-window expiry semantics: every
// authorized activity check extends the window, and an elapsed window tears
// the session down on the next check.
func (s *ManagerSuite) TestSlidingWindow() {
	base := time.Now()

	s.Run("check under the threshold extends the window", func() {
		s.establish("tok-fresh", base)

		// Just under 15 minutes: still active, window refreshed.
		almost := base.Add(15*time.Minute - time.Second)
		s.True(s.manager.IsActive(s.ctx, "tok-fresh", almost))

		// Another near-threshold hop only succeeds because the first check
		// refreshed the last-activity timestamp.
		later := almost.Add(15*time.Minute - time.Second)
		s.True(s.manager.IsActive(s.ctx, "tok-fresh", later))
	})

	s.Run("elapsed window reports inactive and clears the session", func() {
		s.establish("tok-stale", base)

		expired := base.Add(15 * time.Minute)
		s.False(s.manager.IsActive(s.ctx, "tok-stale", expired))

		// Torn down as a side effect of the failed check.
		_, err := s.store.Find(s.ctx, "tok-stale")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown token is inactive", func() {
		s.False(s.manager.IsActive(s.ctx, "tok-missing", base))
	})
}

// TestTeardown verifies logout is idempotent.
func (s *ManagerSuite) TestTeardown() {
	base := time.Now()
	s.establish("tok-logout", base)

	s.Require().NoError(s.manager.Teardown(s.ctx, "tok-logout"))
	s.False(s.manager.IsActive(s.ctx, "tok-logout", base))

	// Logging out an already-logged-out session is a no-op, not an error.
	s.Require().NoError(s.manager.Teardown(s.ctx, "tok-logout"))
}

// TestTeardownActor verifies suspension clears every session an actor holds.
func (s *ManagerSuite) TestTeardownActor() {
	base := time.Now()
	actorID := uuid.New()
	for _, tokenID := range []string{"a-1", "a-2", "a-3"} {
		sess := &Session{
			TokenID:      tokenID,
			ActorID:      actorID,
			ActorType:    "staff",
			Role:         "TELLER",
			CreatedAt:    base,
			LastActivity: base,
		}
		s.Require().NoError(s.manager.Establish(s.ctx, sess))
	}
	other := s.establish("other-1", base)

	removed, err := s.manager.TeardownActor(s.ctx, actorID)
	s.Require().NoError(err)
	s.Equal(3, removed)

	s.False(s.manager.IsActive(s.ctx, "a-1", base))
	s.True(s.manager.IsActive(s.ctx, other.TokenID, base))
}

// TestConcurrentChecks exercises the mutex guarding last-activity writes.
func (s *ManagerSuite) TestConcurrentChecks() {
	base := time.Now()
	s.establish("tok-race", base)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			at := base.Add(time.Duration(n) * time.Second)
			s.manager.IsActive(s.ctx, "tok-race", at)
		}(i)
	}
	wg.Wait()

	s.True(s.manager.IsActive(s.ctx, "tok-race", base.Add(time.Minute)))
}
