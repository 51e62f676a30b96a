package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/internal/platform/validate"
)

// Account is an actor together with its credential.
type Account struct {
	access.Actor
	PasswordHash string
}

// AccountStore is the persistence the login flow needs.
type AccountStore interface {
	ActorLoader
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
	SetActiveClinic(ctx context.Context, actorID, clinicID uuid.UUID) error
	RecordLogin(ctx context.Context, actorID uuid.UUID) error
}

type Handler struct {
	tokens      *Tokens
	accounts    AccountStore
	revocations RevocationStore
}

func NewHandler(tokens *Tokens, accounts AccountStore, revocations RevocationStore) *Handler {
	return &Handler{tokens: tokens, accounts: accounts, revocations: revocations}
}

// RegisterPublicRoutes mounts the unauthenticated login route.
func (h *Handler) RegisterPublicRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts routes that need an authenticated actor and guard.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)
	api.PUT("/auth/active-clinic", h.SetActiveClinic)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ActorView struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	SystemRole     string     `json:"system_role,omitempty"`
	ActiveClinicID *uuid.UUID `json:"active_clinic_id"`
}

func viewOf(a access.Actor) ActorView {
	return ActorView{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		IsActive:       a.Active,
		SystemRole:     a.SystemRole,
		ActiveClinicID: a.ActiveClinicID,
	}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      ActorView `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	acct, err := h.accounts.FindAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && apierror.KindOf(err) != apierror.KindNotFound {
		return err
	}
	if !CheckPassword(acct.PasswordHash, req.Password) || !acct.Active {
		return apierror.Unauthenticated("Invalid credentials")
	}

	issued, err := h.tokens.Issue(acct.ID)
	if err != nil {
		return apierror.Internal(err)
	}
	if err := h.accounts.RecordLogin(ctx, acct.ID); err != nil {
		return err
	}
	return response.OK(c, "Login successful", tokenResponse{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
		User:      viewOf(acct.Actor),
	})
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return apierror.ErrUnauthenticated
	}
	if err := h.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apierror.Internal(err)
	}
	return response.OK(c, "Logged out", nil)
}

type membershipView struct {
	ClinicID    uuid.UUID           `json:"clinic_id"`
	ClinicName  string              `json:"clinic_name"`
	Role        string              `json:"role"`
	Permissions []access.Permission `json:"permissions"`
	AssignedAt  time.Time           `json:"assigned_at"`
}

type meResponse struct {
	ActorView
	Memberships []membershipView `json:"memberships"`
}

func (h *Handler) Me(c echo.Context) error {
	g, err := access.GuardFrom(c)
	if err != nil {
		return err
	}
	s, err := g.Subject(c.Request().Context())
	if err != nil {
		return err
	}
	out := meResponse{ActorView: viewOf(s.Actor), Memberships: []membershipView{}}
	for _, m := range s.Memberships {
		if !m.Active {
			continue
		}
		out.Memberships = append(out.Memberships, membershipView{
			ClinicID:    m.ClinicID,
			ClinicName:  m.ClinicName,
			Role:        m.Role.Name,
			Permissions: m.Role.Permissions,
			AssignedAt:  m.AssignedAt,
		})
	}
	return response.OK(c, "Profile retrieved", out)
}

type activeClinicRequest struct {
	ClinicID string `json:"clinic_id" validate:"required,uuid"`
}

// SetActiveClinic stores the clinic used when a request carries no explicit
// selection. The actor must be able to act in it.
func (h *Handler) SetActiveClinic(c echo.Context) error {
	var req activeClinicRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	clinicID := uuid.MustParse(req.ClinicID)

	g, err := access.GuardFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := g.ResolveClinic(ctx, &clinicID); err != nil {
		return err
	}
	if err := h.accounts.SetActiveClinic(ctx, g.Actor().ID, clinicID); err != nil {
		return err
	}
	return response.OK(c, "Active clinic updated", map[string]uuid.UUID{"active_clinic_id": clinicID})
}
