package prescription

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Prescription struct {
	ID           uuid.UUID  `json:"id"`
	ClinicID     uuid.UUID  `json:"clinic_id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	EncounterID  *uuid.UUID `json:"encounter_id"`
	DoctorID     *uuid.UUID `json:"doctor_id"`
	Medication   string     `json:"medication"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Duration     string     `json:"duration"`
	Quantity     int        `json:"quantity"`
	Refills      int        `json:"refills"`
	Instructions string     `json:"instructions"`
	Status       string     `json:"status"`
	PrescribedAt time.Time  `json:"prescribed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (p *Prescription) OwningClinicID() uuid.UUID { return p.ClinicID }

type CreateRequest struct {
	PatientID    uuid.UUID  `json:"patient_id" validate:"required"`
	EncounterID  *uuid.UUID `json:"encounter_id"`
	DoctorID     *uuid.UUID `json:"doctor_id"`
	Medication   string     `json:"medication" validate:"required,max=255"`
	Dosage       string     `json:"dosage" validate:"required,max=128"`
	Frequency    string     `json:"frequency" validate:"required,max=128"`
	Duration     string     `json:"duration" validate:"omitempty,max=128"`
	Quantity     int        `json:"quantity" validate:"gte=0"`
	Refills      int        `json:"refills" validate:"gte=0,lte=12"`
	Instructions string     `json:"instructions"`
}

type UpdateRequest struct {
	DoctorID     *uuid.UUID `json:"doctor_id"`
	Medication   *string    `json:"medication" validate:"omitempty,min=1,max=255"`
	Dosage       *string    `json:"dosage" validate:"omitempty,min=1,max=128"`
	Frequency    *string    `json:"frequency" validate:"omitempty,min=1,max=128"`
	Duration     *string    `json:"duration" validate:"omitempty,max=128"`
	Quantity     *int       `json:"quantity" validate:"omitempty,gte=0"`
	Refills      *int       `json:"refills" validate:"omitempty,gte=0,lte=12"`
	Instructions *string    `json:"instructions"`
	Status       *string    `json:"status" validate:"omitempty,oneof=active completed cancelled"`
}

func (r *CreateRequest) toModel(now time.Time) *Prescription {
	return &Prescription{
		PatientID:    r.PatientID,
		EncounterID:  r.EncounterID,
		DoctorID:     r.DoctorID,
		Medication:   r.Medication,
		Dosage:       r.Dosage,
		Frequency:    r.Frequency,
		Duration:     r.Duration,
		Quantity:     r.Quantity,
		Refills:      r.Refills,
		Instructions: r.Instructions,
		Status:       StatusActive,
		PrescribedAt: now,
	}
}

func (r *UpdateRequest) apply(p *Prescription) {
	if r.DoctorID != nil {
		p.DoctorID = r.DoctorID
	}
	if r.Medication != nil {
		p.Medication = *r.Medication
	}
	if r.Dosage != nil {
		p.Dosage = *r.Dosage
	}
	if r.Frequency != nil {
		p.Frequency = *r.Frequency
	}
	if r.Duration != nil {
		p.Duration = *r.Duration
	}
	if r.Quantity != nil {
		p.Quantity = *r.Quantity
	}
	if r.Refills != nil {
		p.Refills = *r.Refills
	}
	if r.Instructions != nil {
		p.Instructions = *r.Instructions
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
}
