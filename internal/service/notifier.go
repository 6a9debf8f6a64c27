package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/pkg/mailer"
)

// Recipient identifies one notification target.
type Recipient struct {
	ID    uint
	Name  string
	Email string
}

// Notifier delivers a templated message to a list of recipients. The body
// may contain a %name placeholder which is replaced per recipient.
// Delivery is fire-and-forget: failures are logged, never retried.
type Notifier interface {
	Send(ctx context.Context, recipients []Recipient, subject, body string)
}

type workflowEvent struct {
	Subject    string    `json:"subject"`
	Recipients []uint    `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}

type notifier struct {
	mail    mailer.Mailer
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNotifier builds the notification gateway. The NATS connection is
// optional; when present, each fan-out also publishes a workflow event so
// other platform services can react.
func NewNotifier(mail mailer.Mailer, natsConn *nats.Conn, logger zerolog.Logger) Notifier {
	return &notifier{
		mail:    mail,
		nats:    natsConn,
		subject: "peergrade.notifications",
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *notifier) Send(ctx context.Context, recipients []Recipient, subject, body string) {
	ids := make([]uint, 0, len(recipients))
	for _, recipient := range recipients {
		ids = append(ids, recipient.ID)

		msg := mailer.Message{
			ToName:  recipient.Name,
			ToEmail: recipient.Email,
			Subject: subject,
			Body:    strings.ReplaceAll(body, "%name", recipient.Name),
		}
		if err := n.mail.Send(ctx, msg); err != nil {
			n.logger.Warn().Err(err).Uint("recipient_id", recipient.ID).Msg("failed to send notification email")
		}
	}

	if n.nats == nil {
		return
	}

	payload, err := json.Marshal(workflowEvent{Subject: subject, Recipients: ids, SentAt: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := n.nats.Publish(n.subject, payload); err != nil {
		n.logger.Warn().Err(err).Msg("failed to publish notification event")
	}
}
