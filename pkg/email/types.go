package email

import "context"

type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

var _ Sender = (*Client)(nil)
