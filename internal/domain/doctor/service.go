package doctor

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "doctor"

// Members lists an actor's clinic memberships. A doctor linked to a login
// must belong to the doctor's clinic.
type Members interface {
	ListMemberships(ctx context.Context, actorID uuid.UUID) ([]access.Membership, error)
}

type Service struct {
	repo    Repository
	members Members
}

func NewService(repo Repository, members Members) *Service {
	return &Service{repo: repo, members: members}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*Doctor], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.DoctorsView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Doctor, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.DoctorsCreate)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(ctx, clinicID, req.ActorID); err != nil {
		return nil, err
	}
	d := req.toModel()
	d.ClinicID = clinicID
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.load(ctx, id, access.DoctorsView)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Doctor, error) {
	d, err := s.load(ctx, id, access.DoctorsUpdate)
	if err != nil {
		return nil, err
	}
	req.apply(d)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.load(ctx, id, access.DoctorsDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, d.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*Doctor, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, d, perm, resource); err != nil {
		return nil, err
	}
	return d, nil
}

// checkActor requires actorID, when set, to be an active member of clinicID.
// Unknown actors and members of other clinics fail the same way.
func (s *Service) checkActor(ctx context.Context, clinicID uuid.UUID, actorID *uuid.UUID) error {
	if actorID == nil {
		return nil
	}
	memberships, err := s.members.ListMemberships(ctx, *actorID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if m.ClinicID == clinicID && m.Active {
			return nil
		}
	}
	return apierror.Field("actor_id", "The selected actor is invalid.")
}
