package ports

import (
	"context"

	"github.com/halolight/platform/internal/core/domain"
)

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Email    string
	Username string
	Name     string
	Password string
}

// SessionManager issues, verifies, rotates, and revokes access/refresh token
// pairs.
type SessionManager interface {
	// Register creates the account and opens its first session.
	Register(ctx context.Context, input RegisterInput) (*domain.User, domain.TokenPair, error)

	// Login verifies credentials against the credential store, requires an
	// ACTIVE account, and issues a fresh token pair.
	Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error)

	// VerifyAccess checks an access token's signature and expiry. Purely
	// computational, with no store lookup.
	VerifyAccess(token string) (domain.Identity, error)

	// Refresh redeems a refresh token exactly once per generation, returning
	// the next pair. Redeeming an already-redeemed token revokes the whole
	// session family and fails with domain.ErrTokenReused.
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)

	// Logout revokes the caller's session family.
	Logout(ctx context.Context, sessionID string) error

	// Revoke is the administrative variant of Logout; both are idempotent.
	Revoke(ctx context.Context, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
