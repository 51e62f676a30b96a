// Package accesstest provides an in-memory access.Store and helpers for
// building request contexts in handler and service tests.
package accesstest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
)

// Store is an in-memory access.Store seeded with the default roles.
type Store struct {
	mu          sync.Mutex
	memberships map[uuid.UUID][]access.Membership
	clinics     map[uuid.UUID]bool
}

func NewStore(clinics ...uuid.UUID) *Store {
	s := &Store{memberships: map[uuid.UUID][]access.Membership{}, clinics: map[uuid.UUID]bool{}}
	for _, id := range clinics {
		s.clinics[id] = true
	}
	return s
}

// Role returns the named default role and panics on unknown names.
func Role(name string) access.Role {
	for _, r := range access.DefaultRoles() {
		if r.Name == name {
			return r
		}
	}
	panic("accesstest: no default role " + name)
}

// Actor returns a fresh active actor.
func Actor() access.Actor {
	id := uuid.New()
	return access.Actor{ID: id, Email: id.String()[:8] + "@example.com", Name: "Test Actor", Active: true}
}

// SuperAdmin returns an active actor holding the system role.
func SuperAdmin() access.Actor {
	a := Actor()
	a.SystemRole = access.RoleSuperAdmin
	return a
}

// Grant adds an active membership.
func (s *Store) Grant(actor access.Actor, clinicID uuid.UUID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clinics[clinicID] = true
	s.memberships[actor.ID] = append(s.memberships[actor.ID], access.Membership{
		ActorID:    actor.ID,
		ClinicID:   clinicID,
		Role:       Role(role),
		Active:     true,
		AssignedAt: time.Now(),
	})
}

// Revoke deactivates the membership, leaving the row in place.
func (s *Store) Revoke(actor access.Actor, clinicID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.memberships[actor.ID] {
		if m.ClinicID == clinicID {
			s.memberships[actor.ID][i].Active = false
		}
	}
}

func (s *Store) ListMemberships(_ context.Context, actorID uuid.UUID) ([]access.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]access.Membership, len(s.memberships[actorID]))
	copy(out, s.memberships[actorID])
	return out, nil
}

func (s *Store) GetRole(_ context.Context, name string) (access.Role, error) {
	for _, r := range access.DefaultRoles() {
		if r.Name == name {
			return r, nil
		}
	}
	return access.Role{}, apierror.NotFound("Role")
}

func (s *Store) ClinicExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clinics[id], nil
}

// Context returns ctx carrying actor and a fresh Guard over s.
func (s *Store) Context(ctx context.Context, actor access.Actor) context.Context {
	ctx = access.WithActor(ctx, actor)
	return access.WithGuard(ctx, access.NewGuard(s, actor, nil))
}

// Request returns req with the actor and Guard attached.
func (s *Store) Request(req *http.Request, actor access.Actor) *http.Request {
	return req.WithContext(s.Context(req.Context(), actor))
}
