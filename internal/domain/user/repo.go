package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/pkg/pagination"
)

type Repository interface {
	ListMembers(ctx context.Context, clinicID uuid.UUID, params pagination.Params) ([]*Member, int, error)
	GetMember(ctx context.Context, clinicID, actorID uuid.UUID) (*Member, error)
	FindActorByEmail(ctx context.Context, email string) (access.Actor, error)
	CreateActor(ctx context.Context, a NewActor) (access.Actor, error)
	// AddMembership inserts a membership or reactivates an inactive one.
	// An active membership yields a Conflict.
	AddMembership(ctx context.Context, actorID, clinicID uuid.UUID, role string) error
	UpdateMembershipRole(ctx context.Context, actorID, clinicID uuid.UUID, role string) error
	DeleteMembership(ctx context.Context, actorID, clinicID uuid.UUID) error
	GetRole(ctx context.Context, name string) (access.Role, error)
	ListRoles(ctx context.Context) ([]access.Role, error)
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
