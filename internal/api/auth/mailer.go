package auth

import (
	"context"
	"log/slog"
)

type MailKind string

const (
	MailVerification  MailKind = "verification"
	MailPasswordReset MailKind = "password_reset"
)

// Mailer dispatches transactional email. Delivery failures in the reset flow
// are logged and never surfaced to the caller, so the response cannot be used
// to probe which addresses exist.
type Mailer interface {
	Send(ctx context.Context, to string, kind MailKind, payload map[string]string) error
}

var _ Mailer = (*LogMailer)(nil)

// LogMailer writes the mail to the log instead of sending it. Stands in for a
// real delivery backend in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to string, kind MailKind, payload map[string]string) error {
	attrs := []any{
		slog.String("to", to),
		slog.String("kind", string(kind)),
	}
	for k, v := range payload {
		attrs = append(attrs, slog.String(k, v))
	}
	m.logger.InfoContext(ctx, "Dispatching email", attrs...)
	return nil
}
