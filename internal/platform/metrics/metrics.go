package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsCreated  prometheus.Counter
	RequestsApproved prometheus.Counter
	RequestsRejected prometheus.Counter
	ApproveDuration  prometheus.Histogram
	LoginSuccess     prometheus.Counter
	LoginFailure     prometheus.Counter
	SessionsExpired  prometheus.Counter
	AuditDropped     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_account_requests_created_total",
			Help: "Total number of account requests submitted",
		}),
		RequestsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_account_requests_approved_total",
			Help: "Total number of account requests approved",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_account_requests_rejected_total",
			Help: "Total number of account requests rejected",
		}),
		ApproveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_approve_duration_seconds",
			Help:    "Latency of the atomic approve transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		LoginSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_login_success_total",
			Help: "Total number of successful staff/admin logins",
		}),
		LoginFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_login_failure_total",
			Help: "Total number of failed login attempts",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_sessions_expired_total",
			Help: "Total number of sessions torn down by the idle timeout",
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_audit_entries_dropped_total",
			Help: "Total number of audit entries dropped by the best-effort recorder",
		}),
	}
}
