package labresult

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
	list.GET("/lab-results", h.ListLabResults)
	list.POST("/lab-results", h.CreateLabResult)
	record.GET("/lab-results/:id", h.GetLabResult)
	record.PUT("/lab-results/:id", h.UpdateLabResult)
	record.DELETE("/lab-results/:id", h.DeleteLabResult)
}

func (h *Handler) ListLabResults(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), c.QueryParams())
	if err != nil {
		return err
	}
	return response.OK(c, "Lab results retrieved successfully", page)
}

func (h *Handler) CreateLabResult(c echo.Context) error {
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Lab result created successfully", l)
}

func (h *Handler) GetLabResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Lab result retrieved successfully", l)
}

func (h *Handler) UpdateLabResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Lab result updated successfully", l)
}

func (h *Handler) DeleteLabResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "Lab result deleted successfully", nil)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("Lab result")
	}
	return id, nil
}
