package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/platform/apierror"
)

func TestResolveClinic(t *testing.T) {
	actor := activeActor()
	superadmin := roleNamed(RoleSuperAdmin)
	one := []Membership{member(actor.ID, clinic1, RoleDoctor)}
	two := []Membership{member(actor.ID, clinic1, RoleDoctor), member(actor.ID, clinic2, RoleNurse)}
	c1, c2, c3 := clinic1, clinic2, clinic3

	withPref := func(a Actor, id uuid.UUID) Actor {
		a.ActiveClinicID = &id
		return a
	}

	tests := []struct {
		name     string
		subject  Subject
		selector *uuid.UUID
		want     uuid.UUID
		wantErr  error
	}{
		{"single membership", Subject{Actor: actor, Memberships: one}, nil, clinic1, nil},
		{"no memberships", Subject{Actor: actor}, nil, uuid.Nil, apierror.ErrNoClinicAccess},
		{"several without selection", Subject{Actor: actor, Memberships: two}, nil, uuid.Nil, apierror.ErrAmbiguousClinicContext},
		{"selector among several", Subject{Actor: actor, Memberships: two}, &c2, clinic2, nil},
		{"selector not a member", Subject{Actor: actor, Memberships: two}, &c3, uuid.Nil, apierror.ErrNoClinicAccess},
		{"stored preference", Subject{Actor: withPref(actor, clinic2), Memberships: two}, nil, clinic2, nil},
		{"stale preference ignored", Subject{Actor: withPref(actor, clinic3), Memberships: one}, nil, clinic1, nil},
		{"selector overrides preference", Subject{Actor: withPref(actor, clinic2), Memberships: two}, &c1, clinic1, nil},
		{"bypass selects any clinic", Subject{Actor: actor, SystemRole: &superadmin}, &c3, clinic3, nil},
		{"bypass without selection or membership", Subject{Actor: actor, SystemRole: &superadmin}, nil, uuid.Nil, apierror.ErrNoClinicAccess},
		{"inactive actor", Subject{Actor: Actor{ID: actor.ID}, Memberships: one}, nil, uuid.Nil, apierror.ErrNoClinicAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveClinic(tt.subject, tt.selector)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveClinic_InactiveMembershipNotCandidate(t *testing.T) {
	actor := activeActor()
	revoked := member(actor.ID, clinic2, RoleNurse)
	revoked.Active = false
	s := Subject{Actor: actor, Memberships: []Membership{member(actor.ID, clinic1, RoleDoctor), revoked}}

	got, err := ResolveClinic(s, nil)
	require.NoError(t, err)
	assert.Equal(t, clinic1, got)
}
