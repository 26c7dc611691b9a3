package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halolight/platform/internal/api/metrics"
	"github.com/halolight/platform/internal/core/domain"
)

const defaultCacheTTL = 5 * time.Minute

// CapabilityCache stores resolved capability sets per user, fenced by a
// per-user assignment version.
//
// Keys: authz:ver:<user_id> holds the version counter; authz:caps:<user_id>
// :v<version> holds a JSON array of pattern strings. Invalidate bumps the
// counter, which orphans every entry written under an older version; a Set
// that raced a mutation lands on a key no reader will ever consult. Orphaned
// entries are reaped by the TTL. The version counter itself is a small
// persistent key per user.
type CapabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCapabilityCache creates a CapabilityCache wrapping the given Redis client.
func NewCapabilityCache(client *redis.Client, ttl time.Duration) *CapabilityCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CapabilityCache{client: client, ttl: ttl}
}

// Get returns the cached set stored under the user's current assignment
// version, along with that version. On a miss the version is still returned
// so the caller can fence its eventual Set.
func (c *CapabilityCache) Get(ctx context.Context, userID string) (domain.PatternSet, int64, bool, error) {
	version, err := c.version(ctx, userID)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.client.Get(ctx, c.dataKey(userID, version)).Result()
	if err == redis.Nil {
		metrics.CapabilityCacheTotal.WithLabelValues("miss").Inc()
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("capability cache get: %w", err)
	}
	metrics.CapabilityCacheTotal.WithLabelValues("hit").Inc()

	var patterns []string
	if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
		return nil, 0, false, fmt.Errorf("capability cache decode: %w", err)
	}

	set := domain.PatternSet{}
	for _, p := range patterns {
		pattern, err := domain.ParsePattern(p)
		if err != nil {
			return nil, 0, false, fmt.Errorf("capability cache entry %q: %w", p, err)
		}
		set.Add(pattern)
	}
	return set, version, true, nil
}

// Set stores the user's resolved set under the given assignment version.
// If an Invalidate bumped the version after the caller observed it, the
// entry lands on a dead key and expires unread.
func (c *CapabilityCache) Set(ctx context.Context, userID string, version int64, set domain.PatternSet) error {
	raw, err := json.Marshal(set.Strings())
	if err != nil {
		return fmt.Errorf("capability cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.dataKey(userID, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("capability cache set: %w", err)
	}
	return nil
}

// Invalidate bumps the assignment version for the given users, orphaning
// any entry written under an older version, including writes still in
// flight.
func (c *CapabilityCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, id := range userIDs {
		pipe.Incr(ctx, c.versionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("capability cache invalidate: %w", err)
	}
	return nil
}

func (c *CapabilityCache) version(ctx context.Context, userID string) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("capability cache version: %w", err)
	}
	return version, nil
}

func (c *CapabilityCache) versionKey(userID string) string {
	return "authz:ver:" + userID
}

func (c *CapabilityCache) dataKey(userID string, version int64) string {
	return "authz:caps:" + userID + ":v" + strconv.FormatInt(version, 10)
}
