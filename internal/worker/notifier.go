package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Notifier emails patients about booking events. Delivery is best effort:
// failures are counted and logged, never retried.
type Notifier struct {
	sender  email.Sender
	metrics *metrics.Metrics
	channel string
}

func NewNotifier(sender email.Sender, m *metrics.Metrics) *Notifier {
	return &Notifier{sender: sender, metrics: m, channel: messaging.AppointmentChannel}
}

// Run consumes events from broker until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, broker messaging.Broker) error {
	msgs, err := n.subscribe(ctx, broker)
	if err != nil {
		return err
	}
	return n.consume(ctx, msgs)
}

// Start subscribes before returning and consumes in the background, so
// events published after Start are never missed. The channel yields the
// consumer's exit error.
func (n *Notifier) Start(ctx context.Context, broker messaging.Broker) (<-chan error, error) {
	msgs, err := n.subscribe(ctx, broker)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- n.consume(ctx, msgs) }()
	return done, nil
}

func (n *Notifier) subscribe(ctx context.Context, broker messaging.Broker) (<-chan []byte, error) {
	msgs, err := broker.Subscribe(ctx, n.channel)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}
	log.Info().Str("channel", n.channel).Msg("Notification worker started")
	return msgs, nil
}

func (n *Notifier) consume(ctx context.Context, msgs <-chan []byte) error {
	err := messaging.Consume(ctx, n.channel, msgs, n.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (n *Notifier) Handle(ctx context.Context, evt messaging.Event) error {
	n.metrics.EventsProcessed.Inc()

	var notice notification.Notice
	if err := evt.Decode(&notice); err != nil {
		n.metrics.EmailsFailed.WithLabelValues("decode").Inc()
		return fmt.Errorf("failed to decode %s: %w", evt.Type, err)
	}
	if notice.PatientEmail == "" {
		log.Debug().Str("appointment_id", notice.AppointmentID.String()).Msg("No patient email, skipping notification")
		return nil
	}

	msg, err := email.Render(string(evt.Type), notice.PatientEmail, notice)
	if errors.Is(err, email.ErrNoTemplate) {
		return nil
	}
	if err != nil {
		n.metrics.EmailsFailed.WithLabelValues("template").Inc()
		return err
	}

	start := time.Now()
	err = n.sender.Send(ctx, msg)
	n.metrics.EmailLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "smtp"
		if errors.Is(err, circuitbreaker.ErrOpen) {
			reason = "breaker_open"
		}
		n.metrics.EmailsFailed.WithLabelValues(reason).Inc()
		return err
	}
	n.metrics.EmailsSent.Inc()
	log.Info().
		Str("appointment_id", notice.AppointmentID.String()).
		Str("type", string(evt.Type)).
		Msg("Notification sent")
	return nil
}
