package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type PermissionHandler struct {
	permissions ports.PermissionService
}

func NewPermissionHandler(permissions ports.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

type createPermissionRequest struct {
	Pattern     string `json:"pattern" validate:"required"`
	Description string `json:"description"`
}

type updatePermissionRequest struct {
	Description string `json:"description"`
}

// permissionResponse renders the pattern in its "resource:action" wire form.
type permissionResponse struct {
	ID          string    `json:"id"`
	Pattern     string    `json:"pattern"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPermissionResponse(p *domain.Permission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Pattern:     p.Pattern.String(),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toPermissionResponses(perms []*domain.Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionResponse(p))
	}
	return out
}

func (h *PermissionHandler) Create(c echo.Context) error {
	var req createPermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	perm, err := h.permissions.Create(c.Request().Context(), req.Pattern, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPermissionResponse(perm))
}

func (h *PermissionHandler) Get(c echo.Context) error {
	perm, err := h.permissions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

func (h *PermissionHandler) List(c echo.Context) error {
	perms, err := h.permissions.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponses(perms))
}

// Update changes the description only. Patterns are immutable; a different
// grant is a new permission.
func (h *PermissionHandler) Update(c echo.Context) error {
	var req updatePermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	perm, err := h.permissions.UpdateDescription(c.Request().Context(), c.Param("id"), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

func (h *PermissionHandler) Delete(c echo.Context) error {
	if err := h.permissions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
