package mailer

import "context"

// Message is one outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Mailer delivers messages. Delivery is best-effort; callers do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
