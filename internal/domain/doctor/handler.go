package doctor

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
	list.GET("/doctors", h.ListDoctors)
	list.POST("/doctors", h.CreateDoctor)
	record.GET("/doctors/:id", h.GetDoctor)
	record.PUT("/doctors/:id", h.UpdateDoctor)
	record.DELETE("/doctors/:id", h.DeleteDoctor)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), c.QueryParams())
	if err != nil {
		return err
	}
	return response.OK(c, "Doctors retrieved successfully", page)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	d, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Doctor created successfully", d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Doctor retrieved successfully", d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	d, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Doctor updated successfully", d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "Doctor deleted successfully", nil)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("Doctor")
	}
	return id, nil
}
