package labresult

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, l *LabResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error)
	Update(ctx context.Context, l *LabResult) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*LabResult, int, error)
}
