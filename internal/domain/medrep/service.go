package medrep

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "medrep visit"

type Service struct {
	repo Repository
	refs refs.Resolver
}

func NewService(repo Repository, resolver refs.Resolver) *Service {
	return &Service{repo: repo, refs: resolver}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*Visit], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.MedrepsView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Visit, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.MedrepsCreate)
	if err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Doctor, "doctor_id", req.DoctorID); err != nil {
		return nil, err
	}
	v := req.toModel()
	v.ClinicID = clinicID
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.load(ctx, id, access.MedrepsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Visit, error) {
	v, err := s.load(ctx, id, access.MedrepsUpdate)
	if err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, v.ClinicID, refs.Doctor, "doctor_id", req.DoctorID); err != nil {
		return nil, err
	}
	req.apply(v)
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	v, err := s.load(ctx, id, access.MedrepsDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, v.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Visit, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, v, perm, resource); err != nil {
		return nil, err
	}
	return v, nil
}
