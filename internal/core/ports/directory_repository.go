package ports

import (
	"context"

	"github.com/halolight/platform/internal/core/domain"
)

// UserRepository is the directory's user storage.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository manages roles and user-role assignments.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) (*domain.Role, error)
	Delete(ctx context.Context, id string) error

	Assign(ctx context.Context, userID, roleID string) error
	Unassign(ctx context.Context, userID, roleID string) error
	RolesForUser(ctx context.Context, userID string) ([]*domain.Role, error)
	UsersWithRole(ctx context.Context, roleID string) ([]string, error)
	ClearAssignments(ctx context.Context, roleID string) error
}

// PermissionRepository manages the permission catalog and role-permission
// links.
type PermissionRepository interface {
	Create(ctx context.Context, perm *domain.Permission) (*domain.Permission, error)
	FindByID(ctx context.Context, id string) (*domain.Permission, error)
	FindByPattern(ctx context.Context, pattern domain.Pattern) (*domain.Permission, error)
	List(ctx context.Context) ([]*domain.Permission, error)
	UpdateDescription(ctx context.Context, id, description string) (*domain.Permission, error)
	Delete(ctx context.Context, id string) error

	SetForRole(ctx context.Context, roleID string, permissionIDs []string) error
	PermissionsForRole(ctx context.Context, roleID string) ([]*domain.Permission, error)
	RoleCountForPermission(ctx context.Context, permissionID string) (int64, error)
}
