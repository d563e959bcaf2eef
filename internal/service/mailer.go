package service

import (
	"context"
	"log/slog"
)

// LogMailer writes outgoing mail to the structured log instead of sending
// it. Used in development, where the verification link is copied from the
// log.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer writing to logger, or to the default
// logger when logger is nil.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "outgoing email", "to", to, "subject", subject, "body", body)
	return nil
}
