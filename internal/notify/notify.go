// Package notify delivers HTML messages to a list of recipients.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/logger"
)

// Notifier delivers a message. Implementations must honour ctx cancellation
// so callers can bound delivery with a deadline.
type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, bodyHTML string) error
}

// Nop discards every message.
type Nop struct{}

// Send implements Notifier.
func (Nop) Send(ctx context.Context, recipients []string, subject, _ string) error {
	logger.Get().Debugw("notification dropped", "recipients", len(recipients), "subject", subject)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

// Send implements Notifier. Every notifier is attempted even when an
// earlier one fails.
func (m Multi) Send(ctx context.Context, recipients []string, subject, bodyHTML string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, recipients, subject, bodyHTML); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options configures New.
type Options struct {
	Driver string
	SMTP   SMTPConfig
	AMQP   AMQPConfig
}

// New builds the notifier selected by opts.Driver: smtp, amqp, both or none.
// The returned close function releases broker connections and is never nil.
func New(opts Options) (Notifier, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(opts.Driver) {
	case "", "none":
		return Nop{}, noop, nil
	case "smtp":
		return NewSMTPNotifier(opts.SMTP), noop, nil
	case "amqp":
		n, err := DialAMQP(opts.AMQP)
		if err != nil {
			return nil, noop, err
		}
		return n, n.Close, nil
	case "both":
		n, err := DialAMQP(opts.AMQP)
		if err != nil {
			return nil, noop, err
		}
		return Multi{NewSMTPNotifier(opts.SMTP), n}, n.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown notify driver %q", opts.Driver)
	}
}
