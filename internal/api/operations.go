package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/api/handler"
	"github.com/halolight/platform/internal/core/domain"
)

// operation binds one route to the capability it demands. The table is
// static: what an endpoint requires is visible here, in one place, at
// compile time.
type operation struct {
	method     string
	path       string
	capability domain.Capability
	handler    echo.HandlerFunc
}

// protectedOperations enumerates every authenticated, capability-gated
// route. Auth-only routes (me, logout) and public routes are registered
// separately in NewRouter.
func protectedOperations(
	users *handler.UserHandler,
	roles *handler.RoleHandler,
	permissions *handler.PermissionHandler,
	resources map[domain.ResourceKind]*handler.ResourceHandler,
) []operation {
	ops := []operation{
		{http.MethodGet, "/users", domain.Cap("users", "view"), users.List},
		{http.MethodPost, "/users", domain.Cap("users", "create"), users.Create},
		{http.MethodGet, "/users/:id", domain.Cap("users", "view"), users.Get},
		{http.MethodPut, "/users/:id", domain.Cap("users", "update"), users.Update},
		{http.MethodDelete, "/users/:id", domain.Cap("users", "delete"), users.Delete},
		{http.MethodGet, "/users/:id/roles", domain.Cap("users", "view"), users.Roles},
		{http.MethodPost, "/users/:id/roles/:roleId", domain.Cap("users", "update"), users.AssignRole},
		{http.MethodDelete, "/users/:id/roles/:roleId", domain.Cap("users", "update"), users.UnassignRole},

		{http.MethodGet, "/roles", domain.Cap("roles", "view"), roles.List},
		{http.MethodPost, "/roles", domain.Cap("roles", "create"), roles.Create},
		{http.MethodGet, "/roles/:id", domain.Cap("roles", "view"), roles.Get},
		{http.MethodPut, "/roles/:id", domain.Cap("roles", "update"), roles.Update},
		{http.MethodDelete, "/roles/:id", domain.Cap("roles", "delete"), roles.Delete},
		{http.MethodGet, "/roles/:id/permissions", domain.Cap("roles", "view"), roles.Permissions},
		{http.MethodPost, "/roles/:id/permissions", domain.Cap("roles", "update"), roles.SetPermissions},

		{http.MethodGet, "/permissions", domain.Cap("permissions", "view"), permissions.List},
		{http.MethodPost, "/permissions", domain.Cap("permissions", "create"), permissions.Create},
		{http.MethodGet, "/permissions/:id", domain.Cap("permissions", "view"), permissions.Get},
		{http.MethodPut, "/permissions/:id", domain.Cap("permissions", "update"), permissions.Update},
		{http.MethodDelete, "/permissions/:id", domain.Cap("permissions", "delete"), permissions.Delete},
	}

	for _, kind := range domain.ResourceKinds {
		h := resources[kind]
		base := "/" + string(kind)
		resource := string(kind)
		ops = append(ops,
			operation{http.MethodGet, base, domain.Cap(resource, "view"), h.List},
			operation{http.MethodPost, base, domain.Cap(resource, "create"), h.Create},
			operation{http.MethodGet, base + "/:id", domain.Cap(resource, "view"), h.Get},
			operation{http.MethodPut, base + "/:id", domain.Cap(resource, "update"), h.Update},
			operation{http.MethodDelete, base + "/:id", domain.Cap(resource, "delete"), h.Delete},
		)
	}

	return ops
}
