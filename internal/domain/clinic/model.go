package clinic

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clinic struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Address     string                 `json:"address"`
	Phone       string                 `json:"phone"`
	Email       string                 `json:"email"`
	Description string                 `json:"description"`
	IsActive    bool                   `json:"is_active"`
	IsPublic    bool                   `json:"is_public"`
	Billing     map[string]interface{} `json:"billing"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// OwningClinicID makes a clinic subject to the same record checks as the
// data it owns.
func (c *Clinic) OwningClinicID() uuid.UUID { return c.ID }

// PublicClinic is the only projection served without authentication.
type PublicClinic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
}

// Statistics are live counts for one clinic.
type Statistics struct {
	ClinicID             uuid.UUID `json:"clinic_id"`
	Patients             int       `json:"patients"`
	ActivePatients       int       `json:"active_patients"`
	Doctors              int       `json:"doctors"`
	Members              int       `json:"members"`
	Encounters           int       `json:"encounters"`
	EncountersToday      int       `json:"encounters_today"`
	EncountersScheduled  int       `json:"encounters_scheduled"`
	EncountersCompleted  int       `json:"encounters_completed"`
	ActivePrescriptions  int       `json:"active_prescriptions"`
	PendingLabResults    int       `json:"pending_lab_results"`
	AbnormalLabResults   int       `json:"abnormal_lab_results"`
	Files                int       `json:"files"`
	FileBytes            int64     `json:"file_bytes"`
	UpcomingMedrepVisits int       `json:"upcoming_medrep_visits"`
}

type CreateRequest struct {
	Name        string                 `json:"name" validate:"required,max=255"`
	Slug        string                 `json:"slug" validate:"omitempty,max=255"`
	Address     string                 `json:"address"`
	Phone       string                 `json:"phone" validate:"omitempty,max=32"`
	Email       string                 `json:"email" validate:"omitempty,email,max=255"`
	Description string                 `json:"description"`
	IsPublic    bool                   `json:"is_public"`
	Billing     map[string]interface{} `json:"billing"`
}

type UpdateRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Address     *string                `json:"address"`
	Phone       *string                `json:"phone" validate:"omitempty,max=32"`
	Email       *string                `json:"email" validate:"omitempty,email,max=255"`
	Description *string                `json:"description"`
	IsActive    *bool                  `json:"is_active"`
	IsPublic    *bool                  `json:"is_public"`
	Billing     map[string]interface{} `json:"billing"`
}

func (r *CreateRequest) toModel() *Clinic {
	c := &Clinic{
		Name:        r.Name,
		Slug:        r.Slug,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Description: r.Description,
		IsActive:    true,
		IsPublic:    r.IsPublic,
		Billing:     r.Billing,
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	} else {
		c.Slug = Slugify(c.Slug)
	}
	if c.Billing == nil {
		c.Billing = map[string]interface{}{}
	}
	return c
}

func (r *UpdateRequest) apply(c *Clinic) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.IsPublic != nil {
		c.IsPublic = *r.IsPublic
	}
	if r.Billing != nil {
		c.Billing = r.Billing
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses everything else into single dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
