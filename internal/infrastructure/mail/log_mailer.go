package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/ports"
)

// LogMailer stands in for SMTP when no mail server is configured. It records
// that a message would have been sent. The token is never written.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, n ports.Notification) error {
	m.log.Info().
		Str("kind", string(n.Kind)).
		Str("to", n.To).
		Msg("mail delivery disabled, notification not sent")
	return nil
}
