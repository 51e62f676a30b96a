package encounter

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "encounter"

type Service struct {
	repo Repository
	refs refs.Resolver
	now  func() time.Time
}

func NewService(repo Repository, resolver refs.Resolver) *Service {
	return &Service{repo: repo, refs: resolver, now: time.Now}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*Encounter], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.EncountersView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Encounter, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.EncountersCreate)
	if err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Patient, "patient_id", &req.PatientID); err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Doctor, "doctor_id", req.DoctorID); err != nil {
		return nil, err
	}
	enc := req.toModel(s.now())
	enc.ClinicID = clinicID
	if err := s.repo.Create(ctx, enc); err != nil {
		return nil, err
	}
	return enc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return s.load(ctx, id, access.EncountersView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Encounter, error) {
	enc, err := s.load(ctx, id, access.EncountersUpdate)
	if err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, enc.ClinicID, refs.Doctor, "doctor_id", req.DoctorID); err != nil {
		return nil, err
	}
	req.apply(enc)
	if err := s.repo.Update(ctx, enc); err != nil {
		return nil, err
	}
	return enc, nil
}

// UpdateStatus applies a lifecycle transition. Moves the status graph does
// not allow are reported against the status field.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *StatusRequest) (*Encounter, error) {
	enc, err := s.load(ctx, id, access.EncountersUpdate)
	if err != nil {
		return nil, err
	}
	if err := enc.Transition(req.Status, s.now()); err != nil {
		return nil, apierror.Field("status", "The status "+err.Error()+".")
	}
	if err := s.repo.Update(ctx, enc); err != nil {
		return nil, err
	}
	return enc, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	enc, err := s.load(ctx, id, access.EncountersDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, enc.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Encounter, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	enc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, enc, perm, resource); err != nil {
		return nil, err
	}
	return enc, nil
}
