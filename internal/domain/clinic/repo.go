package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns clinics restricted to ids; nil ids means every clinic.
	List(ctx context.Context, ids []uuid.UUID, params pagination.Params) ([]*Clinic, int, error)
	CountPatients(ctx context.Context, id uuid.UUID) (int, error)
	Statistics(ctx context.Context, id uuid.UUID) (*Statistics, error)

	// Public reads select only the public projection of active, public clinics.
	ListPublic(ctx context.Context, params pagination.Params) ([]*PublicClinic, int, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*PublicClinic, error)
}
