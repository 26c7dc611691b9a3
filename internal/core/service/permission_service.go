package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type permissionService struct {
	perms ports.PermissionRepository
	now   func() time.Time
}

// NewPermissionService returns the permission catalog service.
func NewPermissionService(perms ports.PermissionRepository) ports.PermissionService {
	return &permissionService{perms: perms, now: time.Now}
}

// Create validates the pattern up front; malformed patterns are rejected
// here, never at match time.
func (s *permissionService) Create(ctx context.Context, pattern, description string) (*domain.Permission, error) {
	parsed, err := domain.ParsePattern(strings.TrimSpace(pattern))
	if err != nil {
		return nil, err
	}
	if _, err := s.perms.FindByPattern(ctx, parsed); err == nil {
		return nil, domain.ErrPermissionExists
	} else if !errors.Is(err, domain.ErrPermissionNotFound) {
		return nil, err
	}

	return s.perms.Create(ctx, &domain.Permission{
		ID:          uuid.NewString(),
		Pattern:     parsed,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	})
}

func (s *permissionService) Get(ctx context.Context, id string) (*domain.Permission, error) {
	return s.perms.FindByID(ctx, id)
}

func (s *permissionService) List(ctx context.Context) ([]*domain.Permission, error) {
	return s.perms.List(ctx)
}

// UpdateDescription is the only mutation allowed on a referenced permission.
func (s *permissionService) UpdateDescription(ctx context.Context, id, description string) (*domain.Permission, error) {
	return s.perms.UpdateDescription(ctx, id, strings.TrimSpace(description))
}

func (s *permissionService) Delete(ctx context.Context, id string) error {
	if _, err := s.perms.FindByID(ctx, id); err != nil {
		return err
	}
	refs, err := s.perms.RoleCountForPermission(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrPermissionInUse
	}
	return s.perms.Delete(ctx, id)
}
