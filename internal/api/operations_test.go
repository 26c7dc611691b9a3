package api

import (
	"testing"

	"github.com/halolight/platform/internal/api/handler"
	"github.com/halolight/platform/internal/core/domain"
)

func TestProtectedOperationsTable(t *testing.T) {
	users := handler.NewUserHandler(nil)
	roles := handler.NewRoleHandler(nil)
	permissions := handler.NewPermissionHandler(nil)
	resources := make(map[domain.ResourceKind]*handler.ResourceHandler)
	for _, kind := range domain.ResourceKinds {
		resources[kind] = handler.NewResourceHandler(kind, nil)
	}

	ops := protectedOperations(users, roles, permissions, resources)
	if len(ops) == 0 {
		t.Fatalf("empty operation table")
	}

	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		if op.method == "" || op.path == "" || op.handler == nil {
			t.Fatalf("incomplete operation: %+v", op)
		}
		if op.capability.Resource == "" || op.capability.Action == "" {
			t.Fatalf("%s %s: missing capability", op.method, op.path)
		}
		key := op.method + " " + op.path
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate route: %s", key)
		}
		seen[key] = struct{}{}
	}

	// every thin collection is served and gated on its own resource token
	for _, kind := range domain.ResourceKinds {
		key := "GET /" + string(kind)
		if _, ok := seen[key]; !ok {
			t.Fatalf("missing list route for %s", kind)
		}
	}
}
