package fileasset

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, f *FileAsset) error
	GetByID(ctx context.Context, id uuid.UUID) (*FileAsset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*FileAsset, int, error)
}
