package patient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "patient"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*Patient], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.PatientsView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Patient, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.PatientsCreate)
	if err != nil {
		return nil, err
	}
	p := req.toModel()
	p.ClinicID = clinicID
	if p.MedicalRecordNumber == "" {
		p.MedicalRecordNumber = newMRN()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads the patient and authorizes perm on it. A missing record is
// reported before any access decision.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.load(ctx, id, access.PatientsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Patient, error) {
	p, err := s.load(ctx, id, access.PatientsUpdate)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.load(ctx, id, access.PatientsDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Patient, error) {
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

func newMRN() string {
	id := ulid.Make().String()
	return fmt.Sprintf("MRN-%s", strings.ToUpper(id[len(id)-10:]))
}
