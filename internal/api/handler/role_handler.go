package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/core/ports"
)

type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type updateRoleRequest struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
}

type setPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required"`
}

func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	role, err := h.roles.Create(c.Request().Context(), ports.CreateRoleInput{
		Name:        req.Name,
		Label:       req.Label,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.roles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RoleHandler) Update(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	role, err := h.roles.Update(c.Request().Context(), c.Param("id"), ports.UpdateRoleInput{
		Label:       req.Label,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Delete removes a role. Roles still assigned to users are rejected with a
// conflict unless ?force=true, which unassigns every holder first.
func (h *RoleHandler) Delete(c echo.Context) error {
	force := c.QueryParam("force") == "true"
	if err := h.roles.Delete(c.Request().Context(), c.Param("id"), force); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPermissions replaces the role's grant list wholesale.
func (h *RoleHandler) SetPermissions(c echo.Context) error {
	var req setPermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	perms, err := h.roles.SetPermissions(c.Request().Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *RoleHandler) Permissions(c echo.Context) error {
	perms, err := h.roles.PermissionsFor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perms)
}
