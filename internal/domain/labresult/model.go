package labresult

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type LabResult struct {
	ID             uuid.UUID  `json:"id"`
	ClinicID       uuid.UUID  `json:"clinic_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	EncounterID    *uuid.UUID `json:"encounter_id"`
	TestName       string     `json:"test_name"`
	TestCode       string     `json:"test_code"`
	ResultValue    string     `json:"result_value"`
	Unit           string     `json:"unit"`
	ReferenceRange string     `json:"reference_range"`
	Status         string     `json:"status"`
	IsAbnormal     bool       `json:"is_abnormal"`
	PerformedAt    *time.Time `json:"performed_at"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (l *LabResult) OwningClinicID() uuid.UUID { return l.ClinicID }

type CreateRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" validate:"required"`
	EncounterID    *uuid.UUID `json:"encounter_id"`
	TestName       string     `json:"test_name" validate:"required,max=255"`
	TestCode       string     `json:"test_code" validate:"omitempty,max=64"`
	ResultValue    string     `json:"result_value"`
	Unit           string     `json:"unit" validate:"omitempty,max=32"`
	ReferenceRange string     `json:"reference_range" validate:"omitempty,max=128"`
	Status         string     `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	IsAbnormal     bool       `json:"is_abnormal"`
	PerformedAt    *time.Time `json:"performed_at"`
	Notes          string     `json:"notes"`
}

type UpdateRequest struct {
	TestName       *string    `json:"test_name" validate:"omitempty,min=1,max=255"`
	TestCode       *string    `json:"test_code" validate:"omitempty,max=64"`
	ResultValue    *string    `json:"result_value"`
	Unit           *string    `json:"unit" validate:"omitempty,max=32"`
	ReferenceRange *string    `json:"reference_range" validate:"omitempty,max=128"`
	Status         *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	IsAbnormal     *bool      `json:"is_abnormal"`
	PerformedAt    *time.Time `json:"performed_at"`
	Notes          *string    `json:"notes"`
}

func (r *CreateRequest) toModel() *LabResult {
	l := &LabResult{
		PatientID:      r.PatientID,
		EncounterID:    r.EncounterID,
		TestName:       r.TestName,
		TestCode:       r.TestCode,
		ResultValue:    r.ResultValue,
		Unit:           r.Unit,
		ReferenceRange: r.ReferenceRange,
		Status:         r.Status,
		IsAbnormal:     r.IsAbnormal,
		PerformedAt:    r.PerformedAt,
		Notes:          r.Notes,
	}
	if l.Status == "" {
		l.Status = StatusPending
	}
	return l
}

func (r *UpdateRequest) apply(l *LabResult) {
	if r.TestName != nil {
		l.TestName = *r.TestName
	}
	if r.TestCode != nil {
		l.TestCode = *r.TestCode
	}
	if r.ResultValue != nil {
		l.ResultValue = *r.ResultValue
	}
	if r.Unit != nil {
		l.Unit = *r.Unit
	}
	if r.ReferenceRange != nil {
		l.ReferenceRange = *r.ReferenceRange
	}
	if r.Status != nil {
		l.Status = *r.Status
	}
	if r.IsAbnormal != nil {
		l.IsAbnormal = *r.IsAbnormal
	}
	if r.PerformedAt != nil {
		l.PerformedAt = r.PerformedAt
	}
	if r.Notes != nil {
		l.Notes = *r.Notes
	}
}
