package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

type consoleMailer struct {
	logger zerolog.Logger
}

// NewConsole builds a Mailer that writes messages to the log, for
// development and tests.
func NewConsole(logger zerolog.Logger) Mailer {
	return &consoleMailer{logger: logger.With().Str("component", "console_mailer").Logger()}
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email")

	return nil
}
