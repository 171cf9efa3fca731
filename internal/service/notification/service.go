package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

// Notice is the appointment snapshot carried in booking events.
type Notice struct {
	AppointmentID uuid.UUID               `json:"appointmentId"`
	DoctorName    string                  `json:"doctorName"`
	Date          string                  `json:"date"`
	Time          model.TimeSlot          `json:"time"`
	PatientName   string                  `json:"patientName"`
	PatientEmail  string                  `json:"patientEmail,omitempty"`
	Status        model.AppointmentStatus `json:"status"`
}

func NoticeFor(a *model.Appointment) Notice {
	return Notice{
		AppointmentID: a.ID,
		DoctorName:    a.DoctorName,
		Date:          a.Date,
		Time:          a.Time,
		PatientName:   a.PatientSnapshot.Name,
		PatientEmail:  a.PatientSnapshot.Email,
		Status:        a.Status,
	}
}

type Service interface {
	AppointmentChanged(ctx context.Context, t messaging.EventType, a *model.Appointment) error
}

type service struct {
	broker  messaging.Broker
	channel string
}

func NewService(broker messaging.Broker) Service {
	return &service{broker: broker, channel: messaging.AppointmentChannel}
}

func (s *service) AppointmentChanged(ctx context.Context, t messaging.EventType, a *model.Appointment) error {
	evt, err := messaging.NewEvent(t, NoticeFor(a))
	if err != nil {
		return err
	}
	if err := s.broker.Publish(ctx, s.channel, evt); err != nil {
		return fmt.Errorf("failed to publish %s: %w", t, err)
	}
	return nil
}

// Discard drops every notification. Used when no broker is configured.
var Discard Service = discard{}

type discard struct{}

func (discard) AppointmentChanged(context.Context, messaging.EventType, *model.Appointment) error {
	return nil
}
