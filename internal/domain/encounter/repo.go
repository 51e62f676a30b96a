package encounter

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, enc *Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	Update(ctx context.Context, enc *Encounter) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Encounter, int, error)
}
