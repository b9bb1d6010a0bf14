package email

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is an outbound email. At least one of HTMLBody and TextBody is required.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body,omitempty"`
	TextBody string `json:"text_body,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the recipient address and that the message has content.
func (m Message) Validate() error {
	var errs []error
	if _, err := mail.ParseAddress(m.To); err != nil {
		errs = append(errs, errors.New("invalid recipient address"))
	}
	if strings.TrimSpace(m.Subject) == "" {
		errs = append(errs, errors.New("subject is required"))
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		errs = append(errs, errors.New("body is required"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidMessage}, errs...)...)
	}
	return nil
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// New returns a Postmark sender when a server token is configured and a
// DevSender otherwise.
func New(cfg Config) (Sender, error) {
	if cfg.UsesPostmark() {
		return NewPostmarkSender(cfg)
	}
	return NewDevSender(cfg.DevDir), nil
}
