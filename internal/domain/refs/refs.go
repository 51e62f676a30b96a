// Package refs checks that records referenced from another record belong to
// the same clinic. A reference to a missing record and a reference into
// another clinic fail identically so that existence is not disclosed.
package refs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/db"
)

type Kind string

const (
	Patient   Kind = "patient"
	Doctor    Kind = "doctor"
	Encounter Kind = "encounter"
)

var tables = map[Kind]string{
	Patient:   "patients",
	Doctor:    "doctors",
	Encounter: "encounters",
}

// Resolver returns the owning clinic of a referenced record, or
// apierror.ErrNotFound.
type Resolver interface {
	ClinicOf(ctx context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error)
}

// SameClinic requires the record id (when set) to exist in clinicID. field
// names the request field the id came from.
func SameClinic(ctx context.Context, r Resolver, clinicID uuid.UUID, kind Kind, field string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	owner, err := r.ClinicOf(ctx, kind, *id)
	if err != nil && !errors.Is(err, apierror.ErrNotFound) {
		return err
	}
	if err != nil || owner != clinicID {
		return apierror.Field(field, fmt.Sprintf("The selected %s is invalid.", string(kind)))
	}
	return nil
}

type pgResolver struct {
	pool *pgxpool.Pool
}

func NewResolver(pool *pgxpool.Pool) Resolver {
	return &pgResolver{pool: pool}
}

func (r *pgResolver) ClinicOf(ctx context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error) {
	table, ok := tables[kind]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	var clinicID uuid.UUID
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT clinic_id FROM `+table+` WHERE id = $1`, id).Scan(&clinicID)
	if err != nil {
		return uuid.Nil, db.MapError(err, string(kind))
	}
	return clinicID, nil
}

// Static is an in-memory Resolver keyed by record id.
type Static map[uuid.UUID]uuid.UUID

func (s Static) ClinicOf(_ context.Context, _ Kind, id uuid.UUID) (uuid.UUID, error) {
	c, ok := s[id]
	if !ok {
		return uuid.Nil, apierror.ErrNotFound
	}
	return c, nil
}
