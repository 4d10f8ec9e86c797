package notify

import (
	"context"
	"log/slog"
)

// LogSender records emails instead of sending them. It is used when no
// email provider key is configured, e.g. in development.
type LogSender struct{}

func (LogSender) SendEmail(_ context.Context, msg Email) error {
	slog.Info("email delivery skipped, no provider configured", "subject", msg.Subject)
	return nil
}

// Unconfigured fails every push. Push has no useful local fallback.
type Unconfigured struct{}

func (Unconfigured) SendPush(context.Context, Push) error {
	return ErrNotConfigured
}
