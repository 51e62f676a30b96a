package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "clinic"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the clinics the actor belongs to, or every clinic for a
// system role. An actor with no active membership gets NoClinicAccess.
func (s *Service) List(ctx context.Context, params pagination.Params) (*pagination.Page[*Clinic], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	subject, err := g.Subject(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if !subject.Bypass() {
		if !subject.Actor.Active {
			return nil, apierror.ErrNoClinicAccess
		}
		if ids = subject.ActiveClinics(); len(ids) == 0 {
			return nil, apierror.ErrNoClinicAccess
		}
	}
	items, total, err := s.repo.List(ctx, ids, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Clinic, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := g.Bypass(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.Forbidden("Missing permission: " + string(access.ClinicsCreate))
	}
	c := req.toModel()
	if c.Slug == "" {
		return nil, apierror.Field("slug", "The slug must contain letters or digits.")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.load(ctx, id, access.ClinicsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Clinic, error) {
	c, err := s.load(ctx, id, access.ClinicsUpdate)
	if err != nil {
		return nil, err
	}
	req.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete refuses while the clinic still owns patients.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.load(ctx, id, access.ClinicsDelete)
	if err != nil {
		return err
	}
	n, err := s.repo.CountPatients(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("Cannot delete clinic with existing patients")
	}
	return s.repo.Delete(ctx, c.ID)
}

func (s *Service) Statistics(ctx context.Context, id uuid.UUID) (*Statistics, error) {
	c, err := s.load(ctx, id, access.ReportsView)
	if err != nil {
		return nil, err
	}
	return s.repo.Statistics(ctx, c.ID)
}

func (s *Service) ListPublic(ctx context.Context, params pagination.Params) (*pagination.Page[*PublicClinic], error) {
	items, total, err := s.repo.ListPublic(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*PublicClinic, error) {
	return s.repo.GetPublic(ctx, id)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Clinic, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, c, perm, resource); err != nil {
		return nil, err
	}
	return c, nil
}
