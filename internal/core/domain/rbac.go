package domain

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrRoleNotFound = errors.New("role not found")
var ErrRoleExists = errors.New("role name already exists")
var ErrRoleInUse = errors.New("role has assigned users")
var ErrPermissionNotFound = errors.New("permission not found")
var ErrPermissionExists = errors.New("permission pattern already exists")
var ErrPermissionInUse = errors.New("permission is referenced by a role")

// Role is a named bundle of permissions shared by many users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is an atomic capability grant. Pattern is immutable once the
// permission is referenced by a role; only the description may change.
type Permission struct {
	ID          string    `json:"id"`
	Pattern     Pattern   `json:"-"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole links a user to a role. Pure association, no lifecycle of its own.
type UserRole struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RolePermission links a role to a permission.
type RolePermission struct {
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}
