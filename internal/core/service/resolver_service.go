package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type resolverService struct {
	roles ports.RoleRepository
	perms ports.PermissionRepository
	cache ports.CapabilityCache
	log   zerolog.Logger
}

// NewCapabilityResolver returns the CapabilityResolver implementation.
// cache may be nil, in which case every call resolves from the directory.
func NewCapabilityResolver(roles ports.RoleRepository, perms ports.PermissionRepository, cache ports.CapabilityCache, log zerolog.Logger) ports.CapabilityResolver {
	return &resolverService{roles: roles, perms: perms, cache: cache, log: log}
}

// EffectiveSet unions the permission patterns of every role the user holds.
// An unknown user resolves to the empty set, so authorization denies by
// default rather than erroring toward allow.
func (s *resolverService) EffectiveSet(ctx context.Context, userID string) (domain.PatternSet, error) {
	if userID == "" {
		return domain.NewPatternSet(), nil
	}

	// The version observed before the directory read fences the cache
	// write below: an Invalidate landing in between bumps it, and the
	// cache refuses to make a superseded write readable.
	var cacheVersion int64
	cacheable := false
	if s.cache != nil {
		set, version, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			// Cache trouble degrades to a directory lookup, never to allow.
			s.log.Warn().Err(err).Str("user_id", userID).Msg("capability cache read failed")
		} else if ok {
			return set, nil
		} else {
			cacheVersion = version
			cacheable = true
		}
	}

	roles, err := s.roles.RolesForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NewPatternSet(), nil
		}
		return nil, err
	}

	set := domain.NewPatternSet()
	for _, role := range roles {
		perms, err := s.perms.PermissionsForRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range perms {
			set.Add(p.Pattern)
		}
	}

	if cacheable {
		if err := s.cache.Set(ctx, userID, cacheVersion, set); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("capability cache write failed")
		}
	}
	return set, nil
}

func (s *resolverService) HasCapability(ctx context.Context, userID string, cap domain.Capability) (bool, error) {
	set, err := s.EffectiveSet(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Allows(cap), nil
}
