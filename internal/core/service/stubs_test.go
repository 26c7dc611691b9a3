package service

import (
	"context"
	"sync"
	"time"

	"github.com/halolight/platform/internal/core/domain"
)

// In-memory repository doubles shared by the service tests. The session
// store reproduces the conditional-update semantics of the real one so
// rotation races behave the same way.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) Find(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Rotate(ctx context.Context, id string, fromGeneration int64, refreshHash, newHash string, newExpiresAt, now time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Revoked || s.Generation != fromGeneration || s.RefreshHash != refreshHash || !now.Before(s.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	s.Generation++
	s.PrevRefreshHash = s.RefreshHash
	s.RefreshHash = newHash
	s.ExpiresAt = newExpiresAt
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Revoked = true
	}
	return nil
}

func (r *memSessionRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			s.Revoked = true
		}
	}
	return nil
}

func (r *memSessionRepo) CountActiveForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.UserID == userID && !s.Revoked && now.Before(s.ExpiresAt) {
			n++
		}
	}
	return n, nil
}

type memRoleRepo struct {
	mu          sync.Mutex
	roles       map[string]*domain.Role
	assignments map[string]map[string]struct{} // userID -> roleIDs

	// afterRolesForUser runs after the role list is captured but before it
	// is returned, outside the lock. Tests use it to interleave a mutation
	// with an in-flight resolution.
	afterRolesForUser func()
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{
		roles:       make(map[string]*domain.Role),
		assignments: make(map[string]map[string]struct{}),
	}
}

func (r *memRoleRepo) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return nil, domain.ErrRoleExists
		}
	}
	cp := *role
	r.roles[role.ID] = &cp
	return role, nil
}

func (r *memRoleRepo) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *memRoleRepo) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *memRoleRepo) List(ctx context.Context) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		cp := *role
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRoleRepo) Update(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	cp := *role
	r.roles[role.ID] = &cp
	return role, nil
}

func (r *memRoleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *memRoleRepo) Assign(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignments[userID] == nil {
		r.assignments[userID] = make(map[string]struct{})
	}
	r.assignments[userID][roleID] = struct{}{}
	return nil
}

func (r *memRoleRepo) Unassign(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[userID][roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.assignments[userID], roleID)
	return nil
}

func (r *memRoleRepo) RolesForUser(ctx context.Context, userID string) ([]*domain.Role, error) {
	r.mu.Lock()
	var out []*domain.Role
	for roleID := range r.assignments[userID] {
		if role, ok := r.roles[roleID]; ok {
			cp := *role
			out = append(out, &cp)
		}
	}
	hook := r.afterRolesForUser
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memRoleRepo) UsersWithRole(ctx context.Context, roleID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for userID, roles := range r.assignments {
		if _, ok := roles[roleID]; ok {
			out = append(out, userID)
		}
	}
	return out, nil
}

func (r *memRoleRepo) ClearAssignments(ctx context.Context, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, roles := range r.assignments {
		delete(roles, roleID)
	}
	return nil
}

type memPermRepo struct {
	mu        sync.Mutex
	perms     map[string]*domain.Permission
	rolePerms map[string][]string // roleID -> permission IDs
}

func newMemPermRepo() *memPermRepo {
	return &memPermRepo{
		perms:     make(map[string]*domain.Permission),
		rolePerms: make(map[string][]string),
	}
}

func (r *memPermRepo) Create(ctx context.Context, perm *domain.Permission) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.perms {
		if existing.Pattern == perm.Pattern {
			return nil, domain.ErrPermissionExists
		}
	}
	cp := *perm
	r.perms[perm.ID] = &cp
	return perm, nil
}

func (r *memPermRepo) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.perms[id]
	if !ok {
		return nil, domain.ErrPermissionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPermRepo) FindByPattern(ctx context.Context, pattern domain.Pattern) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.perms {
		if p.Pattern == pattern {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPermissionNotFound
}

func (r *memPermRepo) List(ctx context.Context) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Permission, 0, len(r.perms))
	for _, p := range r.perms {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memPermRepo) UpdateDescription(ctx context.Context, id, description string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.perms[id]
	if !ok {
		return nil, domain.ErrPermissionNotFound
	}
	p.Description = description
	cp := *p
	return &cp, nil
}

func (r *memPermRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.perms[id]; !ok {
		return domain.ErrPermissionNotFound
	}
	delete(r.perms, id)
	return nil
}

func (r *memPermRepo) SetForRole(ctx context.Context, roleID string, permissionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolePerms[roleID] = append([]string(nil), permissionIDs...)
	return nil
}

func (r *memPermRepo) PermissionsForRole(ctx context.Context, roleID string) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Permission
	for _, id := range r.rolePerms[roleID] {
		if p, ok := r.perms[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPermRepo) RoleCountForPermission(ctx context.Context, permissionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, ids := range r.rolePerms {
		for _, id := range ids {
			if id == permissionID {
				n++
				break
			}
		}
	}
	return n, nil
}

type memCacheEntry struct {
	userID  string
	version int64
}

type memCache struct {
	mu            sync.Mutex
	entries       map[memCacheEntry]domain.PatternSet
	versions      map[string]int64
	invalidations []string
}

func newMemCache() *memCache {
	return &memCache{
		entries:  make(map[memCacheEntry]domain.PatternSet),
		versions: make(map[string]int64),
	}
}

func (c *memCache) Get(ctx context.Context, userID string) (domain.PatternSet, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := c.versions[userID]
	set, ok := c.entries[memCacheEntry{userID, version}]
	return set, version, ok, nil
}

func (c *memCache) Set(ctx context.Context, userID string, version int64, set domain.PatternSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memCacheEntry{userID, version}] = set
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, userIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		c.versions[id]++
		c.invalidations = append(c.invalidations, id)
	}
	return nil
}
