package doctor

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Doctor, int, error)
}
