package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/apierror"
)

var (
	clinic1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	clinic2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	clinic3 = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func roleNamed(name string) Role {
	for _, r := range DefaultRoles() {
		if r.Name == name {
			return r
		}
	}
	panic("no default role " + name)
}

func member(actorID, clinicID uuid.UUID, role string) Membership {
	return Membership{ActorID: actorID, ClinicID: clinicID, Role: roleNamed(role), Active: true}
}

func activeActor() Actor {
	return Actor{ID: uuid.New(), Email: "doc@example.com", Active: true}
}

type fakeStore struct {
	memberships map[uuid.UUID][]Membership
	clinics     map[uuid.UUID]bool
	err         error
	calls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memberships: make(map[uuid.UUID][]Membership),
		clinics:     map[uuid.UUID]bool{clinic1: true, clinic2: true},
	}
}

func (f *fakeStore) ListMemberships(_ context.Context, actorID uuid.UUID) ([]Membership, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.memberships[actorID], nil
}

func (f *fakeStore) GetRole(_ context.Context, name string) (Role, error) {
	for _, r := range DefaultRoles() {
		if r.Name == name {
			return r, nil
		}
	}
	return Role{}, apierror.NotFound("Role")
}

func (f *fakeStore) ClinicExists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.clinics[id], nil
}

type record struct{ clinicID uuid.UUID }

func (r record) OwningClinicID() uuid.UUID { return r.clinicID }

type countingObserver struct {
	allowed map[string]int
	denied  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{allowed: map[string]int{}, denied: map[string]int{}}
}

func (o *countingObserver) ObserveDecision(reason string, allowed bool) {
	if allowed {
		o.allowed[reason]++
		return
	}
	o.denied[reason]++
}

var errStore = errors.New("connection refused")
