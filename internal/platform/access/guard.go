package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicemr/api/internal/platform/apierror"
)

// Owned is implemented by every domain record; the owning clinic id is the
// only input record-level checks take from the record.
type Owned interface {
	OwningClinicID() uuid.UUID
}

// Observer receives every decision a Guard makes.
type Observer interface {
	ObserveDecision(reason string, allowed bool)
}

// Guard evaluates access for one request. The subject is loaded from the
// store on first use and kept only for the lifetime of the Guard, so a
// revoked membership takes effect on the next request.
type Guard struct {
	store Store
	actor Actor
	obs   Observer

	once    sync.Once
	subject Subject
	err     error

	clinic  *uuid.UUID
	decided *uuid.UUID
}

// NewGuard returns a Guard for actor. obs may be nil.
func NewGuard(store Store, actor Actor, obs Observer) *Guard {
	return &Guard{store: store, actor: actor, obs: obs}
}

func (g *Guard) Actor() Actor { return g.actor }

// Subject loads the actor's system role and memberships once.
func (g *Guard) Subject(ctx context.Context) (Subject, error) {
	g.once.Do(func() {
		g.subject, g.err = g.load(ctx)
	})
	return g.subject, g.err
}

func (g *Guard) load(ctx context.Context) (Subject, error) {
	s := Subject{Actor: g.actor}
	if g.actor.SystemRole != "" {
		role, err := g.store.GetRole(ctx, g.actor.SystemRole)
		if err != nil {
			return Subject{}, fmt.Errorf("load system role %q: %w", g.actor.SystemRole, err)
		}
		s.SystemRole = &role
	}
	memberships, err := g.store.ListMemberships(ctx, g.actor.ID)
	if err != nil {
		return Subject{}, fmt.Errorf("load memberships: %w", err)
	}
	s.Memberships = memberships
	return s, nil
}

// Bypass reports whether the actor holds a system-wide role.
func (g *Guard) Bypass(ctx context.Context) (bool, error) {
	s, err := g.Subject(ctx)
	if err != nil {
		return false, err
	}
	return s.Bypass(), nil
}

// ResolveClinic resolves and records the clinic the request is scoped to.
func (g *Guard) ResolveClinic(ctx context.Context, selector *uuid.UUID) (uuid.UUID, error) {
	s, err := g.Subject(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := ResolveClinic(s, selector)
	if err != nil {
		g.observe(ctx, Decision{Reason: ReasonNoMembership})
		return uuid.Nil, err
	}
	if _, member := s.Membership(id); !member && s.Bypass() {
		ok, err := g.store.ClinicExists(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("check clinic: %w", err)
		}
		if !ok {
			return uuid.Nil, apierror.ErrNoClinicAccess
		}
	}
	g.clinic = &id
	return id, nil
}

// Clinic returns the clinic the request has been scoped to, if any.
func (g *Guard) Clinic() (uuid.UUID, bool) {
	if g.clinic == nil {
		return uuid.Nil, false
	}
	return *g.clinic, true
}

// DecidedClinic returns the clinic the most recent access decision was
// made against, whether or not it was allowed.
func (g *Guard) DecidedClinic() (uuid.UUID, bool) {
	if g.decided == nil {
		return uuid.Nil, false
	}
	return *g.decided, true
}

// CanAccess reports whether the actor may act on data of clinicID.
func (g *Guard) CanAccess(ctx context.Context, clinicID uuid.UUID) (bool, error) {
	s, err := g.Subject(ctx)
	if err != nil {
		return false, err
	}
	d := Evaluate(s, clinicID, "")
	g.observe(ctx, d)
	return d.Allowed, nil
}

// Authorize requires perm inside clinicID.
func (g *Guard) Authorize(ctx context.Context, clinicID uuid.UUID, perm Permission) error {
	s, err := g.Subject(ctx)
	if err != nil {
		return err
	}
	d := Evaluate(s, clinicID, perm)
	g.observe(ctx, d)
	return denial(d, "clinic")
}

// Require resolves the current clinic when needed and requires perm in it.
// It returns the clinic list and create operations must be scoped to.
func (g *Guard) Require(ctx context.Context, perm Permission) (uuid.UUID, error) {
	clinicID, ok := g.Clinic()
	if !ok {
		var err error
		if clinicID, err = g.ResolveClinic(ctx, nil); err != nil {
			return uuid.Nil, err
		}
	}
	if err := g.Authorize(ctx, clinicID, perm); err != nil {
		return uuid.Nil, err
	}
	return clinicID, nil
}

// AuthorizeRecord requires perm on rec, judged by the record's own clinic.
// A record outside the request's clinic scope is denied even for system
// roles. resource names the record in the denial message.
func (g *Guard) AuthorizeRecord(ctx context.Context, rec Owned, perm Permission, resource string) error {
	s, err := g.Subject(ctx)
	if err != nil {
		return err
	}
	d := EvaluateRecord(s, g.clinic, rec.OwningClinicID(), perm)
	g.observe(ctx, d)
	return denial(d, resource)
}

func denial(d Decision, resource string) error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonMissingPermission:
		return apierror.Forbidden("Missing permission: " + string(d.Permission))
	default:
		return apierror.NoAccessTo(resource)
	}
}

func (g *Guard) observe(ctx context.Context, d Decision) {
	if d.ClinicID != uuid.Nil {
		id := d.ClinicID
		g.decided = &id
	}
	if g.obs != nil {
		g.obs.ObserveDecision(string(d.Reason), d.Allowed)
	}
	if !d.Allowed {
		zerolog.Ctx(ctx).Debug().
			Str("actor_id", g.actor.ID.String()).
			Str("clinic_id", d.ClinicID.String()).
			Str("permission", string(d.Permission)).
			Str("reason", string(d.Reason)).
			Msg("access denied")
	}
}
