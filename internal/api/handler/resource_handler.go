package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

// ResourceHandler serves one resource kind. The kinds share a shape, so each
// route group gets its own instance bound to a kind.
type ResourceHandler struct {
	kind      domain.ResourceKind
	resources ports.ResourceService
}

func NewResourceHandler(kind domain.ResourceKind, resources ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{kind: kind, resources: resources}
}

type resourceRequest struct {
	Title   string         `json:"title" validate:"required"`
	Payload map[string]any `json:"payload"`
}

func (h *ResourceHandler) Create(c echo.Context) error {
	var req resourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	item, err := h.resources.Create(c.Request().Context(), h.kind, identity.UserID, ports.ResourceInput{
		Title:   req.Title,
		Payload: req.Payload,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ResourceHandler) Get(c echo.Context) error {
	item, err := h.resources.Get(c.Request().Context(), h.kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ResourceHandler) List(c echo.Context) error {
	items, err := h.resources.List(c.Request().Context(), h.kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ResourceHandler) Update(c echo.Context) error {
	var req resourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.resources.Update(c.Request().Context(), h.kind, c.Param("id"), ports.ResourceInput{
		Title:   req.Title,
		Payload: req.Payload,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ResourceHandler) Delete(c echo.Context) error {
	if err := h.resources.Delete(c.Request().Context(), h.kind, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
