// Package medrep records visits from pharmaceutical sales representatives.
package medrep

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Visit struct {
	ID        uuid.UUID  `json:"id"`
	ClinicID  uuid.UUID  `json:"clinic_id"`
	DoctorID  *uuid.UUID `json:"doctor_id"`
	RepName   string     `json:"rep_name"`
	Company   string     `json:"company"`
	Products  []string   `json:"products"`
	VisitAt   time.Time  `json:"visit_at"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (v *Visit) OwningClinicID() uuid.UUID { return v.ClinicID }

type CreateRequest struct {
	DoctorID *uuid.UUID `json:"doctor_id"`
	RepName  string     `json:"rep_name" validate:"required,max=255"`
	Company  string     `json:"company" validate:"required,max=255"`
	Products []string   `json:"products" validate:"max=50,dive,required,max=255"`
	VisitAt  time.Time  `json:"visit_at" validate:"required"`
	Notes    string     `json:"notes"`
}

type UpdateRequest struct {
	DoctorID *uuid.UUID `json:"doctor_id"`
	RepName  *string    `json:"rep_name" validate:"omitempty,min=1,max=255"`
	Company  *string    `json:"company" validate:"omitempty,min=1,max=255"`
	Products []string   `json:"products" validate:"omitempty,max=50,dive,required,max=255"`
	VisitAt  *time.Time `json:"visit_at"`
	Status   *string    `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Notes    *string    `json:"notes"`
}

func (r *CreateRequest) toModel() *Visit {
	products := r.Products
	if products == nil {
		products = []string{}
	}
	return &Visit{
		DoctorID: r.DoctorID,
		RepName:  r.RepName,
		Company:  r.Company,
		Products: products,
		VisitAt:  r.VisitAt,
		Status:   StatusScheduled,
		Notes:    r.Notes,
	}
}

func (r *UpdateRequest) apply(v *Visit) {
	if r.DoctorID != nil {
		v.DoctorID = r.DoctorID
	}
	if r.RepName != nil {
		v.RepName = *r.RepName
	}
	if r.Company != nil {
		v.Company = *r.Company
	}
	if r.Products != nil {
		v.Products = r.Products
	}
	if r.VisitAt != nil {
		v.VisitAt = *r.VisitAt
	}
	if r.Status != nil {
		v.Status = *r.Status
	}
	if r.Notes != nil {
		v.Notes = *r.Notes
	}
}
