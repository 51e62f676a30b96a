package access

import (
	"context"

	"github.com/google/uuid"
)

// Store is the read side of the membership and role data the access rules
// consume. Implementations must read committed state on every call.
type Store interface {
	// ListMemberships returns every membership of the actor, each with its
	// role and the role's permission set resolved.
	ListMemberships(ctx context.Context, actorID uuid.UUID) ([]Membership, error)
	// GetRole returns the named role. Unknown names yield apierror.ErrNotFound.
	GetRole(ctx context.Context, name string) (Role, error)
	// ClinicExists reports whether a clinic row with id exists.
	ClinicExists(ctx context.Context, id uuid.UUID) (bool, error)
}
