package auth

import (
	"context"
	"log/slog"
)

// ResetNotifier delivers password reset tokens to users.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogNotifier writes reset tokens to the log. It stands in for a mail
// service in development.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("password reset requested", "email", email, "reset_token", token)
	return nil
}
