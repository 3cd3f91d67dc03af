// Package mail renders notifications into email messages and delivers them.
package mail

import (
	"context"
	"log/slog"
)

// Message is a rendered email ready to send.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	// Tags are attached to the message where the provider supports it.
	Tags map[string]string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// It is the default in development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that logs through logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email",
		"to", msg.To,
		"subject", msg.Subject,
		"kind", msg.Tags["kind"],
		"body", msg.Text,
	)
	return nil
}
