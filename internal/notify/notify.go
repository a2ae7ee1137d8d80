// Package notify is the outbound notification boundary. Delivery is
// best-effort: the boolean result reports success but never influences the
// outcome of the operation that triggered it.
package notify

import (
	"context"
	"log/slog"
)

//go:generate mockgen -source=notify.go -destination=mocks/notifier.go -package=mocks

// Notifier delivers account decision notifications to applicants.
type Notifier interface {
	// NotifyApproval sends the new account number and one-time credential.
	NotifyApproval(ctx context.Context, recipient, accountNumber, oneTimeCredential string) bool
	// NotifyRejection sends the rejection reason. accountNumber is empty
	// unless the rejected application had already been assigned one.
	NotifyRejection(ctx context.Context, recipient, accountNumber, reason string) bool
}

// LogNotifier is the default delivery channel for environments without a
// real email/SMS gateway: it records that a notification would have been
// sent, without the credential itself.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyApproval(ctx context.Context, recipient, accountNumber, _ string) bool {
	n.logger.InfoContext(ctx, "approval notification dispatched",
		"recipient", recipient,
		"account_number", accountNumber,
	)
	return true
}

func (n *LogNotifier) NotifyRejection(ctx context.Context, recipient, accountNumber, reason string) bool {
	attrs := []any{
		"recipient", recipient,
		"reason", reason,
	}
	if accountNumber != "" {
		attrs = append(attrs, "account_number", accountNumber)
	}
	n.logger.InfoContext(ctx, "rejection notification dispatched", attrs...)
	return true
}
