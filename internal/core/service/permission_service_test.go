package service

import (
	"context"
	"errors"
	"testing"

	"github.com/halolight/platform/internal/core/domain"
)

func TestPermissionService_Create(t *testing.T) {
	perms := newMemPermRepo()
	svc := NewPermissionService(perms)
	ctx := context.Background()

	perm, err := svc.Create(ctx, "documents:view", "read documents")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if perm.Pattern.String() != "documents:view" {
		t.Fatalf("unexpected pattern: %s", perm.Pattern)
	}

	if _, err := svc.Create(ctx, "documents:view", ""); !errors.Is(err, domain.ErrPermissionExists) {
		t.Fatalf("duplicate: expected ErrPermissionExists, got %v", err)
	}

	for _, pattern := range []string{"", "documents", "documents:", ":view", "a:b:c"} {
		if _, err := svc.Create(ctx, pattern, ""); !errors.Is(err, domain.ErrMalformedPattern) {
			t.Fatalf("Create(%q): expected ErrMalformedPattern, got %v", pattern, err)
		}
	}

	// the bare universal wildcard normalises to *:*
	star, err := svc.Create(ctx, "*", "everything")
	if err != nil {
		t.Fatalf("create wildcard: %v", err)
	}
	if star.Pattern.String() != "*:*" {
		t.Fatalf("expected *:*, got %s", star.Pattern)
	}
}

func TestPermissionService_DeleteInUse(t *testing.T) {
	perms := newMemPermRepo()
	svc := NewPermissionService(perms)
	ctx := context.Background()

	perm, err := svc.Create(ctx, "documents:view", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := perms.SetForRole(ctx, "editor", []string{perm.ID}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := svc.Delete(ctx, perm.ID); !errors.Is(err, domain.ErrPermissionInUse) {
		t.Fatalf("delete granted permission: expected ErrPermissionInUse, got %v", err)
	}

	if err := perms.SetForRole(ctx, "editor", nil); err != nil {
		t.Fatalf("ungrant: %v", err)
	}
	if err := svc.Delete(ctx, perm.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, perm.ID); !errors.Is(err, domain.ErrPermissionNotFound) {
		t.Fatalf("permission should be gone, got %v", err)
	}
}
