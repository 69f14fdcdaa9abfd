// Package email delivers transactional mail: verification codes and password
// reset tokens. Services depend only on the Sender interface.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/sethvargo/go-retry"
	"gopkg.in/gomail.v2"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender sends through an SMTP relay with gomail.
type SMTPSender struct {
	from    string
	timeout time.Duration
	send    func(m *gomail.Message) error
}

func NewSMTPSender(host string, port int, user, password, from string, timeout time.Duration) *SMTPSender {
	dialer := gomail.NewDialer(host, port, user, password)
	return &SMTPSender{
		from:    from,
		timeout: timeout,
		send:    func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// Send gives up when ctx is done or the per-send timeout elapses. The SMTP
// exchange itself cannot be interrupted and finishes in the background.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "email")}
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.logger.Info(ctx, "email not sent, no smtp host configured", "to", m.To, "subject", m.Subject)
	s.logger.Debug(ctx, "email body", "to", m.To, "html", m.HTML)
	return nil
}

// RetryingSender retries a Sender with a constant delay. When every attempt
// fails the error wraps common.ErrDependencyFailure.
type RetryingSender struct {
	next     Sender
	attempts uint64
	delay    time.Duration
	logger   logging.Logger
}

func NewRetryingSender(next Sender, attempts int, delay time.Duration, logger logging.Logger) *RetryingSender {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingSender{
		next:     next,
		attempts: uint64(attempts),
		delay:    delay,
		logger:   logger.With("module", "email"),
	}
}

func (s *RetryingSender) Send(ctx context.Context, m Message) error {
	b := retry.WithMaxRetries(s.attempts-1, retry.NewConstant(s.delay))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := s.next.Send(ctx, m); err != nil {
			s.logger.Warn(ctx, "email delivery failed", "to", m.To, "attempt", attempt, "error", err)
			if errors.Is(err, context.Canceled) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "email delivery gave up", "to", m.To, "attempts", attempt, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDependencyFailure, err)
	}
	return nil
}
