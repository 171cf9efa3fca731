package email

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers plain-text mail. Repeated SMTP failures open the
// breaker and later sends fail fast with circuitbreaker.ErrOpen.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	breaker *circuitbreaker.CircuitBreaker
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.breaker.Execute(func() error { return s.dialer.DialAndSend(m) }); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when
// no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email not sent, SMTP disabled")
	return nil
}

// NewSender picks SMTP when a host is configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}
