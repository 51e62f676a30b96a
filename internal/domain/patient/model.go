package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID                  uuid.UUID  `json:"id"`
	ClinicID            uuid.UUID  `json:"clinic_id"`
	MedicalRecordNumber string     `json:"medical_record_number"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Gender              string     `json:"gender"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email"`
	Address             string     `json:"address"`
	BloodType           string     `json:"blood_type"`
	Allergies           string     `json:"allergies"`
	Notes               string     `json:"notes"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (p *Patient) OwningClinicID() uuid.UUID { return p.ClinicID }

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type CreateRequest struct {
	MedicalRecordNumber string `json:"medical_record_number" validate:"omitempty,max=64"`
	FirstName           string `json:"first_name" validate:"required,max=128"`
	LastName            string `json:"last_name" validate:"required,max=128"`
	DateOfBirth         string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender              string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	Phone               string `json:"phone" validate:"omitempty,max=32"`
	Email               string `json:"email" validate:"omitempty,email,max=255"`
	Address             string `json:"address"`
	BloodType           string `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies           string `json:"allergies"`
	Notes               string `json:"notes"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	MedicalRecordNumber *string `json:"medical_record_number" validate:"omitempty,min=1,max=64"`
	FirstName           *string `json:"first_name" validate:"omitempty,min=1,max=128"`
	LastName            *string `json:"last_name" validate:"omitempty,min=1,max=128"`
	DateOfBirth         *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender              *string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	Phone               *string `json:"phone" validate:"omitempty,max=32"`
	Email               *string `json:"email" validate:"omitempty,email,max=255"`
	Address             *string `json:"address"`
	BloodType           *string `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies           *string `json:"allergies"`
	Notes               *string `json:"notes"`
	IsActive            *bool   `json:"is_active"`
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &d
}

func (r *CreateRequest) toModel() *Patient {
	p := &Patient{
		MedicalRecordNumber: r.MedicalRecordNumber,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		DateOfBirth:         parseDate(r.DateOfBirth),
		Gender:              r.Gender,
		Phone:               r.Phone,
		Email:               r.Email,
		Address:             r.Address,
		BloodType:           r.BloodType,
		Allergies:           r.Allergies,
		Notes:               r.Notes,
		IsActive:            true,
	}
	if p.Gender == "" {
		p.Gender = "unknown"
	}
	return p
}

func (r *UpdateRequest) apply(p *Patient) {
	if r.MedicalRecordNumber != nil {
		p.MedicalRecordNumber = *r.MedicalRecordNumber
	}
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	if r.DateOfBirth != nil {
		p.DateOfBirth = parseDate(*r.DateOfBirth)
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.BloodType != nil {
		p.BloodType = *r.BloodType
	}
	if r.Allergies != nil {
		p.Allergies = *r.Allergies
	}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}
