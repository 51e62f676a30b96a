package clinic

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/internal/platform/validate"
	"github.com/clinicemr/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated directory.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	public.GET("/public/clinics", h.ListPublicClinics)
	public.GET("/public/clinics/:id", h.GetPublicClinic)
}

// RegisterRoutes mounts the directory on api and the per-clinic routes on
// record, so an explicit clinic selection narrows them like any other record.
func (h *Handler) RegisterRoutes(api, record *echo.Group) {
	api.GET("/clinics", h.ListClinics)
	api.POST("/clinics", h.CreateClinic, access.RequireBypass())
	record.GET("/clinics/:id", h.GetClinic)
	record.PUT("/clinics/:id", h.UpdateClinic)
	record.DELETE("/clinics/:id", h.DeleteClinic)
	record.GET("/clinics/:id/statistics", h.GetStatistics)
}

func (h *Handler) ListClinics(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Clinics retrieved successfully", page)
}

func (h *Handler) CreateClinic(c echo.Context) error {
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	clinic, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Clinic created successfully", clinic)
}

func (h *Handler) GetClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	clinic, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Clinic retrieved successfully", clinic)
}

func (h *Handler) UpdateClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	clinic, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Clinic updated successfully", clinic)
}

func (h *Handler) DeleteClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "Clinic deleted successfully", nil)
}

func (h *Handler) GetStatistics(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Statistics(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Clinic statistics retrieved successfully", stats)
}

func (h *Handler) ListPublicClinics(c echo.Context) error {
	page, err := h.svc.ListPublic(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Clinics retrieved successfully", page)
}

func (h *Handler) GetPublicClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	clinic, err := h.svc.GetPublic(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Clinic retrieved successfully", clinic)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("Clinic")
	}
	return id, nil
}
