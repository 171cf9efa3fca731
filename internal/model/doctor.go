package model

import (
	"github.com/google/uuid"
)

// Specialization is a medical field doctors are grouped by.
type Specialization struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
}

// Doctor is the detail record of a user with the doctor role.
type Doctor struct {
	Base
	UserID             uuid.UUID       `json:"userId" db:"user_id"`
	Name               string          `json:"name" db:"name"`
	SpecializationID   *uuid.UUID      `json:"specializationId,omitempty" db:"specialization_id"`
	SpecializationName string          `json:"specialization,omitempty" db:"specialization_name"`
	Description        string          `json:"description" db:"description"`
	IsActive           bool            `json:"isActive" db:"is_active"`
	Schedules          []ScheduleEntry `json:"schedules" db:"-"`
}

// IsAvailable reports whether slot is part of the doctor's template for day.
func (d *Doctor) IsAvailable(day Weekday, slot TimeSlot) bool {
	for _, e := range d.Schedules {
		if e.Day == day && e.Slot == slot {
			return true
		}
	}
	return false
}

// DoctorFilter narrows doctor listings.
type DoctorFilter struct {
	SpecializationID uuid.UUID
	ActiveOnly       bool
}
