package access

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/apierror"
)

type contextKey string

const (
	actorKey contextKey = "access_actor"
	guardKey contextKey = "access_guard"
)

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

func WithGuard(ctx context.Context, g *Guard) context.Context {
	return context.WithValue(ctx, guardKey, g)
}

func FromContext(ctx context.Context) (*Guard, bool) {
	g, ok := ctx.Value(guardKey).(*Guard)
	return g, ok
}

// GuardFrom returns the request's Guard, or ErrUnauthenticated when the
// request never passed through Attach.
func GuardFrom(c echo.Context) (*Guard, error) {
	g, ok := FromContext(c.Request().Context())
	if !ok {
		return nil, apierror.ErrUnauthenticated
	}
	return g, nil
}

// Current returns the Guard stored in ctx, or ErrUnauthenticated.
func Current(ctx context.Context) (*Guard, error) {
	g, ok := FromContext(ctx)
	if !ok {
		return nil, apierror.ErrUnauthenticated
	}
	return g, nil
}
