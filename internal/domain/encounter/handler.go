package encounter

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
	list.GET("/encounters", h.ListEncounters)
	list.POST("/encounters", h.CreateEncounter)
	record.GET("/encounters/:id", h.GetEncounter)
	record.PUT("/encounters/:id", h.UpdateEncounter)
	record.PATCH("/encounters/:id/status", h.UpdateEncounterStatus)
	record.DELETE("/encounters/:id", h.DeleteEncounter)
}

func (h *Handler) ListEncounters(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), c.QueryParams())
	if err != nil {
		return err
	}
	return response.OK(c, "Encounters retrieved successfully", page)
}

func (h *Handler) CreateEncounter(c echo.Context) error {
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	enc, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Encounter created successfully", enc)
}

func (h *Handler) GetEncounter(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	enc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Encounter retrieved successfully", enc)
}

func (h *Handler) UpdateEncounter(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	enc, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Encounter updated successfully", enc)
}

func (h *Handler) UpdateEncounterStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	enc, err := h.svc.UpdateStatus(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Encounter status updated successfully", enc)
}

func (h *Handler) DeleteEncounter(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "Encounter deleted successfully", nil)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("Encounter")
	}
	return id, nil
}
