package access

import (
	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/apierror"
)

// ResolveClinic picks the clinic a request implicitly operates on.
//
// An explicit selector wins when the subject may access it. Without one the
// stored active-clinic preference is used if it still names an active
// membership, then a single active membership. Several candidates with no
// selection yield ErrAmbiguousClinicContext; none yield ErrNoClinicAccess.
//
// Bypass subjects may select any clinic; whether it exists is checked by the
// caller.
func ResolveClinic(s Subject, selector *uuid.UUID) (uuid.UUID, error) {
	if selector != nil {
		if CanAccess(s, *selector) {
			return *selector, nil
		}
		return uuid.Nil, apierror.ErrNoClinicAccess
	}
	if !s.Bypass() && !s.Actor.Active {
		return uuid.Nil, apierror.ErrNoClinicAccess
	}

	if pref := s.Actor.ActiveClinicID; pref != nil {
		if s.Bypass() {
			return *pref, nil
		}
		if _, ok := s.Membership(*pref); ok {
			return *pref, nil
		}
	}

	active := s.ActiveClinics()
	switch len(active) {
	case 0:
		return uuid.Nil, apierror.ErrNoClinicAccess
	case 1:
		return active[0], nil
	default:
		return uuid.Nil, apierror.ErrAmbiguousClinicContext
	}
}
