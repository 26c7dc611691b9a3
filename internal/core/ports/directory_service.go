package ports

import (
	"context"

	"github.com/halolight/platform/internal/core/domain"
)

// CreateUserInput carries an administrative user creation.
type CreateUserInput struct {
	Email    string
	Username string
	Name     string
	Password string
	Status   domain.UserStatus
}

// UpdateUserInput carries a partial profile update; nil fields are untouched.
type UpdateUserInput struct {
	Name   *string
	Avatar *string
	Status *domain.UserStatus
}

// UserService manages directory accounts.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	// Delete hard-deletes the account unless active sessions reference it,
	// in which case the account transitions to INACTIVE instead.
	Delete(ctx context.Context, id string) error
	AssignRole(ctx context.Context, userID, roleID string) error
	UnassignRole(ctx context.Context, userID, roleID string) error
	RolesFor(ctx context.Context, userID string) ([]*domain.Role, error)
}

// CreateRoleInput carries a role creation.
type CreateRoleInput struct {
	Name        string
	Label       string
	Description string
}

// UpdateRoleInput carries a partial role update.
type UpdateRoleInput struct {
	Label       *string
	Description *string
}

// RoleService manages roles and their permission grants.
type RoleService interface {
	Create(ctx context.Context, input CreateRoleInput) (*domain.Role, error)
	Get(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, id string, input UpdateRoleInput) (*domain.Role, error)
	// Delete fails with domain.ErrRoleInUse while users hold the role unless
	// force is set, which cascades unassignment first.
	Delete(ctx context.Context, id string, force bool) error
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) ([]*domain.Permission, error)
	PermissionsFor(ctx context.Context, roleID string) ([]*domain.Permission, error)
}

// PermissionService manages the permission catalog.
type PermissionService interface {
	Create(ctx context.Context, pattern, description string) (*domain.Permission, error)
	Get(ctx context.Context, id string) (*domain.Permission, error)
	List(ctx context.Context) ([]*domain.Permission, error)
	UpdateDescription(ctx context.Context, id, description string) (*domain.Permission, error)
	Delete(ctx context.Context, id string) error
}

// ResourceInput is the write shape for thin resource items.
type ResourceInput struct {
	Title   string
	Payload map[string]any
}

// ResourceService is the shared service behind the thin collaborators.
type ResourceService interface {
	Create(ctx context.Context, kind domain.ResourceKind, ownerID string, input ResourceInput) (*domain.ResourceItem, error)
	Get(ctx context.Context, kind domain.ResourceKind, id string) (*domain.ResourceItem, error)
	List(ctx context.Context, kind domain.ResourceKind) ([]*domain.ResourceItem, error)
	Update(ctx context.Context, kind domain.ResourceKind, id string, input ResourceInput) (*domain.ResourceItem, error)
	Delete(ctx context.Context, kind domain.ResourceKind, id string) error
}
