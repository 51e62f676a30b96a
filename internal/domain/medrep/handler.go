package medrep

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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

func (h *Handler) RegisterRoutes(list, record *echo.Group) {
	list.GET("/medrep-visits", h.ListVisits)
	list.POST("/medrep-visits", h.CreateVisit)
	record.GET("/medrep-visits/:id", h.GetVisit)
	record.PUT("/medrep-visits/:id", h.UpdateVisit)
	record.DELETE("/medrep-visits/:id", h.DeleteVisit)
}

func (h *Handler) ListVisits(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), c.QueryParams())
	if err != nil {
		return err
	}
	return response.OK(c, "Medrep visits retrieved successfully", page)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Medrep visit created successfully", v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Medrep visit retrieved successfully", v)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Medrep visit updated successfully", v)
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "Medrep visit deleted successfully", nil)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("Medrep visit")
	}
	return id, nil
}
