package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/auth"
	"github.com/clinicemr/api/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, params pagination.Params) (*pagination.Page[*Member], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.UsersView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListMembers(ctx, clinicID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

// Add grants req.Role in the current clinic to the actor with req.Email,
// registering the actor first when it does not exist.
func (s *Service) Add(ctx context.Context, req *AddRequest) (*Member, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.UsersManage)
	if err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.Role); err != nil {
		return nil, err
	}

	var member *Member
	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		actor, err := s.repo.FindActorByEmail(ctx, email)
		switch {
		case apierror.KindOf(err) == apierror.KindNotFound:
			if actor, err = s.register(ctx, email, req); err != nil {
				return err
			}
		case err != nil:
			return err
		}
		if err := s.repo.AddMembership(ctx, actor.ID, clinicID, req.Role); err != nil {
			return err
		}
		member, err = s.repo.GetMember(ctx, clinicID, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) register(ctx context.Context, email string, req *AddRequest) (access.Actor, error) {
	fields := map[string][]string{}
	if req.Name == "" {
		fields["name"] = []string{"The name field is required when the user does not exist."}
	}
	if req.Password == "" {
		fields["password"] = []string{"The password field is required when the user does not exist."}
	}
	if len(fields) > 0 {
		return access.Actor{}, apierror.Validation(fields)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return access.Actor{}, apierror.Internal(err)
	}
	return s.repo.CreateActor(ctx, NewActor{Email: email, Name: req.Name, PasswordHash: hash})
}

func (s *Service) UpdateRole(ctx context.Context, actorID uuid.UUID, req *RoleRequest) (*Member, error) {
	clinicID, err := s.manageOther(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetMember(ctx, clinicID, actorID); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.Role); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMembershipRole(ctx, actorID, clinicID, req.Role); err != nil {
		return nil, err
	}
	return s.repo.GetMember(ctx, clinicID, actorID)
}

// Remove deletes the membership in the current clinic. The actor and its
// memberships elsewhere are kept.
func (s *Service) Remove(ctx context.Context, actorID uuid.UUID) error {
	clinicID, err := s.manageOther(ctx, actorID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetMember(ctx, clinicID, actorID); err != nil {
		return err
	}
	return s.repo.DeleteMembership(ctx, actorID, clinicID)
}

// Roles lists the role catalogue.
func (s *Service) Roles(ctx context.Context) ([]access.Role, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := g.Require(ctx, access.RolesView); err != nil {
		return nil, err
	}
	return s.repo.ListRoles(ctx)
}

// manageOther requires users.manage in the current clinic and refuses to
// let actors change their own membership.
func (s *Service) manageOther(ctx context.Context, actorID uuid.UUID) (uuid.UUID, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	clinicID, err := g.Require(ctx, access.UsersManage)
	if err != nil {
		return uuid.Nil, err
	}
	if g.Actor().ID == actorID {
		return uuid.Nil, apierror.Forbidden("You cannot change your own membership")
	}
	return clinicID, nil
}

// checkRole accepts only clinic-scoped roles; system roles are never granted
// through a membership.
func (s *Service) checkRole(ctx context.Context, name string) error {
	role, err := s.repo.GetRole(ctx, name)
	if apierror.KindOf(err) == apierror.KindNotFound || (err == nil && role.Scope != access.ScopeClinic) {
		return apierror.Field("role", "The selected role is invalid.")
	}
	return err
}
