package domain

import (
	"errors"
	"time"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountNotActive = errors.New("account is not active")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("email or username already taken")

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s UserStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User models an account in the directory. The password hash never leaves
// the service boundary.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar,omitempty"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanAuthenticate reports whether the account may start a session. Suspended
// and inactive users fail authentication regardless of credential validity.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive
}
