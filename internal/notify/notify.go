// ABOUTME: Notification sender collaborator for password recovery
// ABOUTME: Delivery is external to this service; the log sender records intent

package notify

import (
	"context"
	"log/slog"
)

// ResetSender delivers a password reset link out of band. The recovery
// handler treats delivery as an external collaborator: it hands over the
// address and moves on, and the HTTP response never depends on the outcome.
type ResetSender interface {
	SendResetLink(ctx context.Context, email string) error
}

// LogSender is a ResetSender that records the request instead of sending.
// It stands in until a real mail transport is wired up.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{
		logger: slog.Default().With("component", "notify"),
	}
}

// SendResetLink logs the reset request. The address is the lookup key the
// caller already holds, so logging it leaks nothing new.
func (s *LogSender) SendResetLink(_ context.Context, email string) error {
	s.logger.Info("password reset requested", "email", email)
	return nil
}
