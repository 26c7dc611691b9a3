package ports

import (
	"context"
	"time"

	"github.com/halolight/platform/internal/core/domain"
)

// SessionRepository is the single source of truth for refresh-token state.
// One record per session family; the current refresh token is identified by
// (session id, generation, refresh hash).
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Find(ctx context.Context, id string) (*domain.Session, error)

	// Rotate atomically advances the family one generation: it matches the
	// record on (id, fromGeneration, refreshHash, not revoked, not expired at
	// now) and, in the same operation, increments the generation and installs
	// the new refresh hash and expiry. When no record matches (wrong
	// generation, wrong secret, revoked, or expired) it returns
	// domain.ErrSessionNotFound and changes nothing. Two racing callers on
	// the same generation therefore get exactly one success.
	Rotate(ctx context.Context, id string, fromGeneration int64, refreshHash, newHash string, newExpiresAt, now time.Time) (*domain.Session, error)

	// Revoke is idempotent; revoking an already-revoked or missing family is
	// not an error.
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error

	CountActiveForUser(ctx context.Context, userID string, now time.Time) (int64, error)
}
