package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AppointmentChannel carries booking lifecycle events.
const AppointmentChannel = "clinic.appointments"

type EventType string

const (
	EventAppointmentCreated       EventType = "appointment.created"
	EventAppointmentCancelled     EventType = "appointment.cancelled"
	EventAppointmentStatusChanged EventType = "appointment.status_changed"
)

// Event is the envelope published for every booking change.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEvent(t EventType, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Event{ID: uuid.New(), Type: t, OccurredAt: time.Now().UTC(), Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Listen decodes events from channel and hands them to fn until ctx ends.
// Malformed messages and handler errors are logged and skipped.
func Listen(ctx context.Context, b Broker, channel string, fn func(context.Context, Event) error) error {
	msgs, err := b.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return Consume(ctx, channel, msgs, fn)
}

// Consume is Listen for an existing subscription.
func Consume(ctx context.Context, channel string, msgs <-chan []byte, fn func(context.Context, Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			var evt Event
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("Dropping malformed event")
				continue
			}
			if err := fn(ctx, evt); err != nil {
				log.Error().Err(err).Str("event_id", evt.ID.String()).Str("type", string(evt.Type)).Msg("Event handler failed")
			}
		}
	}
}
