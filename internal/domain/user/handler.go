package user

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

// RegisterRoutes mounts member management on the clinic-scoped group; every
// route acts on memberships of the current clinic.
func (h *Handler) RegisterRoutes(list *echo.Group) {
	list.GET("/users", h.ListUsers)
	list.POST("/users", h.AddUser)
	list.PUT("/users/:id/role", h.UpdateUserRole)
	list.DELETE("/users/:id", h.RemoveUser)
	list.GET("/roles", h.ListRoles)
}

func (h *Handler) ListUsers(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Users retrieved successfully", page)
}

func (h *Handler) AddUser(c echo.Context) error {
	var req AddRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.Add(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "User added successfully", m)
}

func (h *Handler) UpdateUserRole(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req RoleRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.UpdateRole(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "User role updated successfully", m)
}

func (h *Handler) RemoveUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "User removed successfully", nil)
}

func (h *Handler) ListRoles(c echo.Context) error {
	roles, err := h.svc.Roles(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, "Roles retrieved successfully", roles)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("User")
	}
	return id, nil
}
