package ports

import (
	"context"

	"github.com/halolight/platform/internal/core/domain"
)

// CapabilityResolver computes a user's effective capability set: the union
// of every pattern granted through the user's roles.
type CapabilityResolver interface {
	EffectiveSet(ctx context.Context, userID string) (domain.PatternSet, error)
	HasCapability(ctx context.Context, userID string, cap domain.Capability) (bool, error)
}

// CapabilityCache holds resolved effective sets between requests. Mutations
// to roles, permissions, or assignments must call Invalidate for every
// affected user before they return. A revoked permission must stop
// authorizing requests the moment the mutation commits.
//
// Entries are fenced by a per-user assignment version: Get reports the
// version the entry (or miss) was observed at, Set stores the entry under
// the version the caller observed before resolving, and Invalidate bumps
// the version. A Set carrying a superseded version must never become
// readable, so a resolution that raced a mutation cannot re-cache the
// pre-mutation set.
type CapabilityCache interface {
	Get(ctx context.Context, userID string) (set domain.PatternSet, version int64, ok bool, err error)
	Set(ctx context.Context, userID string, version int64, set domain.PatternSet) error
	Invalidate(ctx context.Context, userIDs ...string) error
}
