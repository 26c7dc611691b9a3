package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type roleService struct {
	roles ports.RoleRepository
	perms ports.PermissionRepository
	cache ports.CapabilityCache
	now   func() time.Time
	log   zerolog.Logger
}

// NewRoleService returns the role administration service.
func NewRoleService(roles ports.RoleRepository, perms ports.PermissionRepository, cache ports.CapabilityCache, log zerolog.Logger) ports.RoleService {
	return &roleService{roles: roles, perms: perms, cache: cache, now: time.Now, log: log}
}

func (s *roleService) Create(ctx context.Context, input ports.CreateRoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.roles.FindByName(ctx, name); err == nil {
		return nil, domain.ErrRoleExists
	} else if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	return s.roles.Create(ctx, &domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Label:       strings.TrimSpace(input.Label),
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *roleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	return s.roles.FindByID(ctx, id)
}

func (s *roleService) List(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *roleService) Update(ctx context.Context, id string, input ports.UpdateRoleInput) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Label != nil {
		role.Label = strings.TrimSpace(*input.Label)
	}
	if input.Description != nil {
		role.Description = strings.TrimSpace(*input.Description)
	}
	role.UpdatedAt = s.now().UTC()
	return s.roles.Update(ctx, role)
}

// Delete rejects deletion while users hold the role unless forced, in which
// case assignments are cleared first and every affected user's cached
// capability set is dropped before the delete returns.
func (s *roleService) Delete(ctx context.Context, id string, force bool) error {
	if _, err := s.roles.FindByID(ctx, id); err != nil {
		return err
	}
	holders, err := s.roles.UsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	if len(holders) > 0 {
		if !force {
			return domain.ErrRoleInUse
		}
		if err := s.roles.ClearAssignments(ctx, id); err != nil {
			return err
		}
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	if len(holders) > 0 {
		if err := s.invalidate(ctx, holders); err != nil {
			return err
		}
		s.log.Info().Str("role_id", id).Int("unassigned", len(holders)).Msg("role force-deleted")
	}
	return nil
}

// SetPermissions replaces the role's grants. Every permission id must exist;
// the affected users' cached sets are invalidated synchronously.
func (s *roleService) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) ([]*domain.Permission, error) {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(permissionIDs))
	ids := make([]string, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.perms.FindByID(ctx, id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := s.perms.SetForRole(ctx, roleID, ids); err != nil {
		return nil, err
	}

	holders, err := s.roles.UsersWithRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, holders); err != nil {
		return nil, err
	}
	return s.perms.PermissionsForRole(ctx, roleID)
}

func (s *roleService) PermissionsFor(ctx context.Context, roleID string) ([]*domain.Permission, error) {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.perms.PermissionsForRole(ctx, roleID)
}

func (s *roleService) invalidate(ctx context.Context, userIDs []string) error {
	if s.cache == nil || len(userIDs) == 0 {
		return nil
	}
	return s.cache.Invalidate(ctx, userIDs...)
}
