package labresult

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "lab result"

type Service struct {
	repo Repository
	refs refs.Resolver
}

func NewService(repo Repository, resolver refs.Resolver) *Service {
	return &Service{repo: repo, refs: resolver}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*LabResult], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.LabResultsView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*LabResult, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.LabResultsCreate)
	if err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Patient, "patient_id", &req.PatientID); err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Encounter, "encounter_id", req.EncounterID); err != nil {
		return nil, err
	}
	l := req.toModel()
	l.ClinicID = clinicID
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	return s.load(ctx, id, access.LabResultsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*LabResult, error) {
	l, err := s.load(ctx, id, access.LabResultsUpdate)
	if err != nil {
		return nil, err
	}
	req.apply(l)
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	l, err := s.load(ctx, id, access.LabResultsDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, l.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*LabResult, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, l, perm, resource); err != nil {
		return nil, err
	}
	return l, nil
}
