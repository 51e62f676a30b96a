// Package setting exposes the per-clinic settings document.
package setting

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/db"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/internal/platform/validate"
)

// Settings is a free-form document of top-level keys.
type Settings map[string]interface{}

type UpdateRequest struct {
	Settings Settings `json:"settings" validate:"required,max=100"`
}

type Repository interface {
	Get(ctx context.Context, clinicID uuid.UUID) (Settings, error)
	// Merge replaces the given top-level keys and returns the result.
	// A key set to null is removed.
	Merge(ctx context.Context, clinicID uuid.UUID, patch Settings) (Settings, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Get(ctx context.Context, clinicID uuid.UUID) (Settings, error) {
	var s Settings
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT settings FROM clinics WHERE id = $1`, clinicID).Scan(&s)
	if err != nil {
		return nil, db.MapError(err, "Clinic")
	}
	return s, nil
}

func (r *repoPG) Merge(ctx context.Context, clinicID uuid.UUID, patch Settings) (Settings, error) {
	var s Settings
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE clinics SET settings = jsonb_strip_nulls(settings || $2::jsonb), updated_at = NOW()
		WHERE id = $1
		RETURNING settings`, clinicID, patch).Scan(&s)
	if err != nil {
		return nil, db.MapError(err, "Clinic")
	}
	return s, nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.SettingsView)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, clinicID)
}

func (s *Service) Update(ctx context.Context, req *UpdateRequest) (Settings, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.SettingsUpdate)
	if err != nil {
		return nil, err
	}
	return s.repo.Merge(ctx, clinicID, req.Settings)
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(list *echo.Group) {
	list.GET("/settings", h.GetSettings)
	list.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, "Settings retrieved successfully", s)
}

func (h *Handler) UpdateSettings(c echo.Context) error {
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	s, err := h.svc.Update(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Settings updated successfully", s)
}
