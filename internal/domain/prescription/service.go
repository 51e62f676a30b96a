package prescription

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "prescription"

type Service struct {
	repo Repository
	refs refs.Resolver
	now  func() time.Time
}

func NewService(repo Repository, resolver refs.Resolver) *Service {
	return &Service{repo: repo, refs: resolver, now: time.Now}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*Prescription], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.PrescriptionsView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Prescription, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.PrescriptionsCreate)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, clinicID, &req.PatientID, req.EncounterID, req.DoctorID); err != nil {
		return nil, err
	}
	p := req.toModel(s.now())
	p.ClinicID = clinicID
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.load(ctx, id, access.PrescriptionsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Prescription, error) {
	p, err := s.load(ctx, id, access.PrescriptionsUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, p.ClinicID, nil, nil, req.DoctorID); err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.load(ctx, id, access.PrescriptionsDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func (s *Service) checkRefs(ctx context.Context, clinicID uuid.UUID, patientID, encounterID, doctorID *uuid.UUID) error {
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Patient, "patient_id", patientID); err != nil {
		return err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Encounter, "encounter_id", encounterID); err != nil {
		return err
	}
	return refs.SameClinic(ctx, s.refs, clinicID, refs.Doctor, "doctor_id", doctorID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Prescription, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, p, perm, resource); err != nil {
		return nil, err
	}
	return p, nil
}
