package access

import (
	"time"

	"github.com/google/uuid"
)

// Actor is the authenticated identity the access rules are evaluated for.
type Actor struct {
	ID             uuid.UUID
	Email          string
	Name           string
	Active         bool
	SystemRole     string
	ActiveClinicID *uuid.UUID
}

// Membership binds an actor to a clinic with exactly one role.
type Membership struct {
	ActorID    uuid.UUID `json:"actor_id"`
	ClinicID   uuid.UUID `json:"clinic_id"`
	ClinicName string    `json:"clinic_name,omitempty"`
	Role       Role      `json:"role"`
	Active     bool      `json:"is_active"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Subject is the snapshot of an actor together with its system role and
// memberships, loaded once per request.
type Subject struct {
	Actor       Actor
	SystemRole  *Role
	Memberships []Membership
}

// Bypass reports whether the subject holds a system-wide role.
func (s Subject) Bypass() bool {
	return s.SystemRole != nil && s.SystemRole.Bypass()
}

// Membership returns the active membership for clinicID, if any.
func (s Subject) Membership(clinicID uuid.UUID) (Membership, bool) {
	for _, m := range s.Memberships {
		if m.ClinicID == clinicID && m.Active {
			return m, true
		}
	}
	return Membership{}, false
}

// ActiveClinics returns the ids of every clinic the subject is an active
// member of, in membership order.
func (s Subject) ActiveClinics() []uuid.UUID {
	var ids []uuid.UUID
	for _, m := range s.Memberships {
		if m.Active {
			ids = append(ids, m.ClinicID)
		}
	}
	return ids
}
