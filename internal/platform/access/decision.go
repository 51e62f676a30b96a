package access

import "github.com/google/uuid"

// Reason names the rule that produced a Decision.
type Reason string

const (
	ReasonBypass            Reason = "bypass"
	ReasonMember            Reason = "member"
	ReasonInactiveActor     Reason = "inactive_actor"
	ReasonNoMembership      Reason = "no_membership"
	ReasonMissingPermission Reason = "missing_permission"
	ReasonClinicMismatch    Reason = "clinic_mismatch"
)

// Decision is the outcome of evaluating the access rules once.
type Decision struct {
	Allowed    bool
	Reason     Reason
	ClinicID   uuid.UUID
	Permission Permission
}

// Evaluate applies the access rules in order:
//
//  1. a system role allows unconditionally
//  2. an inactive actor, or one without an active membership in clinicID, is denied
//  3. when perm is non-empty the membership role must grant it
//
// Evaluate has no side effects.
func Evaluate(s Subject, clinicID uuid.UUID, perm Permission) Decision {
	d := Decision{ClinicID: clinicID, Permission: perm}
	if s.Bypass() {
		d.Allowed, d.Reason = true, ReasonBypass
		return d
	}
	if !s.Actor.Active {
		d.Reason = ReasonInactiveActor
		return d
	}
	m, ok := s.Membership(clinicID)
	if !ok {
		d.Reason = ReasonNoMembership
		return d
	}
	if perm != "" && !m.Role.Grants(perm) {
		d.Reason = ReasonMissingPermission
		return d
	}
	d.Allowed, d.Reason = true, ReasonMember
	return d
}

// EvaluateRecord applies Evaluate against a record's own clinic. When the
// request is scoped to a clinic, a record owned by any other clinic is
// denied regardless of role.
func EvaluateRecord(s Subject, scope *uuid.UUID, recordClinicID uuid.UUID, perm Permission) Decision {
	if scope != nil && *scope != recordClinicID {
		return Decision{Reason: ReasonClinicMismatch, ClinicID: recordClinicID, Permission: perm}
	}
	return Evaluate(s, recordClinicID, perm)
}

// CanAccess reports whether s may act on data owned by clinicID at all.
func CanAccess(s Subject, clinicID uuid.UUID) bool {
	return Evaluate(s, clinicID, "").Allowed
}

// HasPermission reports whether s may perform perm inside clinicID.
func HasPermission(s Subject, clinicID uuid.UUID, perm Permission) bool {
	return Evaluate(s, clinicID, perm).Allowed
}
