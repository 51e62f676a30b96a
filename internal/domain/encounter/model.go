package encounter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// transitions lists the statuses reachable from each status. Terminal
// statuses have none.
var transitions = map[string][]string{
	StatusScheduled:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

type Encounter struct {
	ID             uuid.UUID  `json:"id"`
	ClinicID       uuid.UUID  `json:"clinic_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       *uuid.UUID `json:"doctor_id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ChiefComplaint string     `json:"chief_complaint"`
	Diagnosis      string     `json:"diagnosis"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *Encounter) OwningClinicID() uuid.UUID { return e.ClinicID }

// Transition moves the encounter to status, stamping start and completion
// times.
func (e *Encounter) Transition(status string, now time.Time) error {
	allowed := false
	for _, next := range transitions[e.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("cannot move from %s to %s", e.Status, status)
	}
	switch status {
	case StatusInProgress:
		e.StartedAt = &now
	case StatusCompleted:
		e.CompletedAt = &now
	}
	e.Status = status
	return nil
}

type CreateRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" validate:"required"`
	DoctorID       *uuid.UUID `json:"doctor_id"`
	Type           string     `json:"type" validate:"required,oneof=consultation follow_up checkup emergency procedure telemedicine"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	ChiefComplaint string     `json:"chief_complaint"`
	Notes          string     `json:"notes"`
}

type UpdateRequest struct {
	DoctorID       *uuid.UUID `json:"doctor_id"`
	Type           *string    `json:"type" validate:"omitempty,oneof=consultation follow_up checkup emergency procedure telemedicine"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	ChiefComplaint *string    `json:"chief_complaint"`
	Diagnosis      *string    `json:"diagnosis"`
	Notes          *string    `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled no_show"`
}

func (r *CreateRequest) toModel(now time.Time) *Encounter {
	e := &Encounter{
		PatientID:      r.PatientID,
		DoctorID:       r.DoctorID,
		Type:           r.Type,
		Status:         StatusScheduled,
		ScheduledAt:    now,
		ChiefComplaint: r.ChiefComplaint,
		Notes:          r.Notes,
	}
	if r.ScheduledAt != nil {
		e.ScheduledAt = *r.ScheduledAt
	}
	return e
}

func (r *UpdateRequest) apply(e *Encounter) {
	if r.DoctorID != nil {
		e.DoctorID = r.DoctorID
	}
	if r.Type != nil {
		e.Type = *r.Type
	}
	if r.ScheduledAt != nil {
		e.ScheduledAt = *r.ScheduledAt
	}
	if r.ChiefComplaint != nil {
		e.ChiefComplaint = *r.ChiefComplaint
	}
	if r.Diagnosis != nil {
		e.Diagnosis = *r.Diagnosis
	}
	if r.Notes != nil {
		e.Notes = *r.Notes
	}
}
