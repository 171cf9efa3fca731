package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

func TestAppointmentChangedPublishesNotice(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := broker.Subscribe(ctx, messaging.AppointmentChannel)
	require.NoError(t, err)

	a := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		DoctorName:      "Gregory House",
		Date:            "2030-01-07",
		Time:            "09:00 AM",
		PatientSnapshot: model.PatientSnapshot{Name: "Alice", Email: "alice@example.com"},
		Status:          model.AppointmentStatusScheduled,
	}
	require.NoError(t, NewService(broker).AppointmentChanged(ctx, messaging.EventAppointmentCreated, a))

	select {
	case raw := <-msgs:
		var evt messaging.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		assert.Equal(t, messaging.EventAppointmentCreated, evt.Type)

		var n Notice
		require.NoError(t, evt.Decode(&n))
		assert.Equal(t, NoticeFor(a), n)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.AppointmentChanged(context.Background(), messaging.EventAppointmentCreated, &model.Appointment{}))
}
