package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientRecord is the clinical chart kept for one patient user.
type PatientRecord struct {
	Base
	UserID              uuid.UUID           `json:"userId" db:"user_id"`
	Allergies           []string            `json:"allergies" db:"-"`
	Conditions          []string            `json:"conditions" db:"-"`
	ConsultationHistory []ConsultationEntry `json:"consultationHistory" db:"-"`
}

// ConsultationEntry is one visit in a patient's history. Entries are only
// ever appended.
type ConsultationEntry struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RecordID      uuid.UUID `json:"recordId" db:"record_id"`
	Date          string    `json:"date" db:"consultation_date"`
	DoctorName    string    `json:"doctorName" db:"doctor_name"`
	Complaint     string    `json:"complaint" db:"complaint"`
	Diagnosis     string    `json:"diagnosis" db:"diagnosis"`
	TreatmentPlan string    `json:"treatmentPlan" db:"treatment_plan"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
	RecordedBy    uuid.UUID `json:"recordedBy" db:"recorded_by"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type AddConsultationRequest struct {
	Date          string `json:"date" binding:"required,isodate"`
	DoctorName    string `json:"doctorName"`
	Complaint     string `json:"complaint" binding:"required"`
	Diagnosis     string `json:"diagnosis"`
	TreatmentPlan string `json:"treatmentPlan"`
	Notes         string `json:"notes"`
}

type UpdateMedicalInfoRequest struct {
	Allergies  []string `json:"allergies"`
	Conditions []string `json:"conditions"`
}
