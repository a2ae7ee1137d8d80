package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"corebank/internal/platform/metrics"
	"corebank/pkg/requestcontext"
)

// Publisher fans audit entries out to an external sink (e.g. Kafka).
// Publishing is best-effort; the ledger's store is the source of truth.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Recorder is the append side of the ledger. Record never fails the caller:
// persistence and fan-out errors are warned and swallowed so an audit outage
// cannot block banking operations.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	outbox  chan Entry
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithOutbox attaches a buffered fan-out channel consumed by a Worker.
func WithOutbox(size int) Option {
	return func(r *Recorder) {
		r.outbox = make(chan Entry, size)
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends an entry to the ledger. Missing ID and timestamp are filled
// in; the timestamp comes from the request-scoped clock when present.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	if err := r.store.Append(ctx, entry); err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "audit append failed",
				"action", entry.Action,
				"actor_id", entry.ActorID,
				"error", err,
			)
		}
		if r.metrics != nil {
			r.metrics.AuditDropped.Inc()
		}
	}

	if r.outbox != nil {
		select {
		case r.outbox <- entry:
		default:
			// Fan-out is best-effort; a full outbox never blocks the caller.
			if r.logger != nil {
				r.logger.WarnContext(ctx, "audit outbox full, dropping fan-out", "action", entry.Action)
			}
		}
	}
}

// Outbox exposes the fan-out channel for the worker. Nil when fan-out is not
// configured.
func (r *Recorder) Outbox() <-chan Entry {
	return r.outbox
}

// ListAll returns every ledger entry, most recent first. Access gating is the
// transport layer's responsibility.
func (r *Recorder) ListAll(ctx context.Context) ([]Entry, error) {
	return r.store.ListAll(ctx)
}

// ListByActor returns the entries recorded for one actor, most recent first.
func (r *Recorder) ListByActor(ctx context.Context, actorID uuid.UUID) ([]Entry, error) {
	return r.store.ListByActor(ctx, actorID)
}

// ListFailedLogins returns the most recent failed login attempts.
func (r *Recorder) ListFailedLogins(ctx context.Context, limit int) ([]Entry, error) {
	return r.store.ListFailedLogins(ctx, limit)
}

// Worker drains the recorder's outbox into a Publisher. Publish failures are
// warned and the entry dropped; the persisted ledger remains authoritative.
type Worker struct {
	publisher Publisher
	inbox     <-chan Entry
	logger    *slog.Logger
}

func NewWorker(publisher Publisher, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry, ok := <-w.inbox:
			if !ok {
				return nil
			}
			publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.publisher.Publish(publishCtx, entry); err != nil && w.logger != nil {
				w.logger.Warn("audit publish failed", "action", entry.Action, "error", err)
			}
			cancel()
		}
	}
}
