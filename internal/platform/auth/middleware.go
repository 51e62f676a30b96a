package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// ActorLoader loads the actor a token was issued to.
type ActorLoader interface {
	GetActor(ctx context.Context, id uuid.UUID) (access.Actor, error)
}

// Authenticate resolves the bearer token into an actor. Requests without a
// valid token, with a revoked token, or for an unknown or deactivated actor
// fail with ErrUnauthenticated.
func Authenticate(tokens *Tokens, actors ActorLoader, revocations RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apierror.ErrUnauthenticated
			}
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				return apierror.ErrUnauthenticated
			}

			ctx := c.Request().Context()
			revoked, err := revocations.IsRevoked(ctx, claims.ID)
			if err != nil {
				return apierror.Internal(err)
			}
			if revoked {
				return apierror.ErrUnauthenticated
			}

			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return apierror.ErrUnauthenticated
			}
			actor, err := actors.GetActor(ctx, actorID)
			if err != nil {
				if apierror.KindOf(err) == apierror.KindNotFound {
					return apierror.ErrUnauthenticated
				}
				return err
			}
			if !actor.Active {
				return apierror.ErrUnauthenticated
			}

			ctx = access.WithActor(ctx, actor)
			ctx = context.WithValue(ctx, claimsKey, claims)
			ctx = zerolog.Ctx(ctx).With().Str("actor_id", actor.ID.String()).Logger().WithContext(ctx)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("actor_id", actor.ID.String())
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}
