package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID  `json:"id"`
	ClinicID       uuid.UUID  `json:"clinic_id"`
	ActorID        *uuid.UUID `json:"actor_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Specialization string     `json:"specialization"`
	LicenseNumber  string     `json:"license_number"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (d *Doctor) OwningClinicID() uuid.UUID { return d.ClinicID }

type CreateRequest struct {
	ActorID        *uuid.UUID `json:"actor_id"`
	FirstName      string     `json:"first_name" validate:"required,max=128"`
	LastName       string     `json:"last_name" validate:"required,max=128"`
	Specialization string     `json:"specialization" validate:"omitempty,max=128"`
	LicenseNumber  string     `json:"license_number" validate:"omitempty,max=64"`
	Phone          string     `json:"phone" validate:"omitempty,max=32"`
	Email          string     `json:"email" validate:"omitempty,email,max=255"`
}

type UpdateRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=128"`
	LastName       *string `json:"last_name" validate:"omitempty,min=1,max=128"`
	Specialization *string `json:"specialization" validate:"omitempty,max=128"`
	LicenseNumber  *string `json:"license_number" validate:"omitempty,max=64"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Email          *string `json:"email" validate:"omitempty,email,max=255"`
	IsActive       *bool   `json:"is_active"`
}

func (r *CreateRequest) toModel() *Doctor {
	return &Doctor{
		ActorID:        r.ActorID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Specialization: r.Specialization,
		LicenseNumber:  r.LicenseNumber,
		Phone:          r.Phone,
		Email:          r.Email,
		IsActive:       true,
	}
}

func (r *UpdateRequest) apply(d *Doctor) {
	if r.FirstName != nil {
		d.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		d.LastName = *r.LastName
	}
	if r.Specialization != nil {
		d.Specialization = *r.Specialization
	}
	if r.LicenseNumber != nil {
		d.LicenseNumber = *r.LicenseNumber
	}
	if r.Phone != nil {
		d.Phone = *r.Phone
	}
	if r.Email != nil {
		d.Email = *r.Email
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
}
