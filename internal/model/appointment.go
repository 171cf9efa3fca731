package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// ParseAppointmentStatus accepts status names in any case.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	for _, st := range []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// PatientSnapshot is the patient identity copied onto an appointment when it
// is booked. Later profile edits do not change it.
type PatientSnapshot struct {
	Name    string `json:"name" db:"patient_name"`
	Email   string `json:"email,omitempty" db:"patient_email"`
	Address string `json:"address,omitempty" db:"patient_address"`
	Age     int    `json:"age,omitempty" db:"patient_age"`
	Phone   string `json:"phone,omitempty" db:"patient_phone"`
}

type Appointment struct {
	Base
	DoctorID        uuid.UUID         `json:"doctorId" db:"doctor_id"`
	DoctorName      string            `json:"doctorName" db:"doctor_name"`
	Specialization  string            `json:"specialization,omitempty" db:"specialization"`
	Date            string            `json:"date" db:"appointment_date"`
	Time            TimeSlot          `json:"time" db:"appointment_time"`
	PatientSnapshot `json:"patient"`
	Reason          string            `json:"reason,omitempty" db:"reason"`
	Status          AppointmentStatus `json:"status" db:"status"`
	IsArchived      bool              `json:"isArchived" db:"is_archived"`
	UserID          *uuid.UUID        `json:"userId,omitempty" db:"user_id"`
	CreatedBy       uuid.UUID         `json:"createdBy" db:"created_by"`
}

// OccupiesSlot reports whether the appointment holds its doctor/date/time.
func (a *Appointment) OccupiesSlot() bool {
	return a.Status != AppointmentStatusCancelled
}

// OwnedBy reports whether userID booked the appointment for themselves.
func (a *Appointment) OwnedBy(userID uuid.UUID) bool {
	return a.UserID != nil && *a.UserID == userID
}

// CreateAppointmentRequest is the booking body. Web forms name the doctor,
// API clients send the doctor id.
type CreateAppointmentRequest struct {
	DoctorID       string `json:"doctor" form:"doctor" binding:"omitempty,uuid"`
	DoctorName     string `json:"doctorName" form:"doctorName"`
	Specialization string `json:"specialization" form:"specialization"`
	Date           string `json:"date" form:"date" binding:"required,isodate"`
	Time           string `json:"time" form:"time" binding:"required,timeslot"`
	Reason         string `json:"reason" form:"reason" binding:"max=1000"`
	Address        string `json:"address" form:"address"`
	Age            int    `json:"age" form:"age" binding:"omitempty,min=0,max=150"`
	Phone          string `json:"phone" form:"phone"`
	PatientName    string `json:"patientName" form:"patientName"`
	PatientEmail   string `json:"patientEmail" form:"patientEmail" binding:"omitempty,email"`
	PatientUserID  string `json:"patientUserId" form:"patientUserId" binding:"omitempty,uuid"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	DoctorID uuid.UUID
	UserID   uuid.UUID
	Date     string
	Status   AppointmentStatus
	Archived *bool
	Pagination
}

// SlotKey identifies a bookable doctor/date/time triple.
type SlotKey struct {
	DoctorID uuid.UUID
	Date     string
	Time     TimeSlot
}

func (a *Appointment) Slot() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// SlotAvailability is one template slot annotated with booking state.
type SlotAvailability struct {
	Time      TimeSlot `json:"time"`
	Available bool     `json:"available"`
}

// Availability is the result of an open-slot lookup for one doctor and date.
type Availability struct {
	DoctorID    uuid.UUID          `json:"doctorId"`
	DoctorName  string             `json:"doctorName"`
	Date        string             `json:"date"`
	DayOfWeek   Weekday            `json:"dayOfWeek"`
	Unavailable bool               `json:"unavailable"`
	Slots       []SlotAvailability `json:"slots"`
}
