package client

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"dblens/rbac"
)

const permissionsCacheKey = "my-permissions"

// fallbackPermissions is the baseline assumed when the permission fetch
// fails: read-only visibility plus the common write actions. It only shapes
// what the caller shows, the server still enforces authorization.
var fallbackPermissions = []string{
	"dashboard.view",
	"connections.view",
	"connections.create",
	"connections.edit",
	"connections.test",
	"schema.view",
	"schema.diagram",
	"query.execute",
	"query.save",
	"monitoring.view",
	"backups.view",
	"backups.create",
	"snapshots.view",
	"migrations.view",
	"audit.view",
	"settings.view",
	"settings.edit",
}

// Permissions evaluates capability queries against the session's permission
// set. Before the first successful load every check is permissive so callers
// do not flicker-deny while the fetch is in flight.
type Permissions struct {
	client *Client
	cache  *gocache.Cache

	mu          sync.RWMutex
	loaded      bool
	perms       map[string]struct{}
	info        *UserPermissions
	subscribers []func()
}

// NewPermissions builds an evaluator bound to a client. ttl bounds how long a
// loaded permission set is trusted before Load refetches.
func NewPermissions(c *Client, ttl time.Duration) *Permissions {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Permissions{
		client: c,
		cache:  gocache.New(ttl, 10*time.Minute),
		perms:  make(map[string]struct{}),
	}
}

// Subscribe registers a callback fired after every permission-set change,
// replacing the browser's cross-tab storage event.
func (p *Permissions) Subscribe(fn func()) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

// Load fetches the permission set unless a cached copy is still fresh. On
// fetch failure the evaluator degrades to the fallback baseline instead of
// locking everything down.
func (p *Permissions) Load(ctx context.Context) error {
	if cached, ok := p.cache.Get(permissionsCacheKey); ok {
		p.apply(cached.(*UserPermissions))
		return nil
	}
	return p.Refresh(ctx)
}

// Refresh forces a refetch, bypassing the cache.
func (p *Permissions) Refresh(ctx context.Context) error {
	info, err := p.client.MyPermissions(ctx)
	if err != nil {
		p.applyFallback()
		return err
	}
	p.cache.Set(permissionsCacheKey, info, gocache.DefaultExpiration)
	p.apply(info)
	return nil
}

// Reset drops the loaded state, returning the evaluator to its permissive
// pre-load behavior. Call on logout.
func (p *Permissions) Reset() {
	p.cache.Delete(permissionsCacheKey)
	p.mu.Lock()
	p.loaded = false
	p.perms = make(map[string]struct{})
	p.info = nil
	subs := append([]func(){}, p.subscribers...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (p *Permissions) apply(info *UserPermissions) {
	p.mu.Lock()
	p.loaded = true
	p.info = info
	p.perms = make(map[string]struct{}, len(info.Permissions))
	for _, perm := range info.Permissions {
		p.perms[perm] = struct{}{}
	}
	subs := append([]func(){}, p.subscribers...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// applyFallback assumes the baseline set; the role comes from the locally
// cached user.
func (p *Permissions) applyFallback() {
	info := &UserPermissions{
		Permissions:  fallbackPermissions,
		HighestRole:  "viewer",
		HighestLevel: rbac.RoleLevel("viewer"),
	}
	if user, ok := p.client.CachedUser(); ok {
		info.HighestRole = user.Role
		info.HighestLevel = rbac.RoleLevel(user.Role)
		info.IsSuperAdmin = user.Role == "super_admin"
		info.IsAdmin = rbac.RoleLevel(user.Role) >= 80
	}
	p.apply(info)
}

func (p *Permissions) authenticated() bool {
	token, ok := p.client.Store().Get(KeyAccessToken)
	return ok && token != ""
}

// Has reports whether the session may use a capability. Permissive when
// unauthenticated (public-route allowance) or before the set has loaded;
// super-admin always passes.
func (p *Permissions) Has(permission string) bool {
	if !p.authenticated() {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return true
	}
	if p.info != nil && p.info.IsSuperAdmin {
		return true
	}
	_, ok := p.perms[permission]
	return ok
}

func (p *Permissions) HasAny(permissions ...string) bool {
	p.mu.RLock()
	super := p.loaded && p.info != nil && p.info.IsSuperAdmin
	p.mu.RUnlock()
	if super {
		return true
	}
	for _, perm := range permissions {
		if p.Has(perm) {
			return true
		}
	}
	return false
}

func (p *Permissions) HasAll(permissions ...string) bool {
	p.mu.RLock()
	super := p.loaded && p.info != nil && p.info.IsSuperAdmin
	p.mu.RUnlock()
	if super {
		return true
	}
	for _, perm := range permissions {
		if !p.Has(perm) {
			return false
		}
	}
	return true
}

// CanManageRole answers whether the session's highest role may manage the
// target role, including the admin bypass (admin manages everything except
// super_admin).
func (p *Permissions) CanManageRole(target string) bool {
	if !p.authenticated() {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded || p.info == nil {
		return false
	}
	if p.info.IsSuperAdmin {
		return true
	}
	return rbac.CanManageRole(p.info.HighestRole, target)
}

// Info returns the loaded permission payload, nil before load.
func (p *Permissions) Info() *UserPermissions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}
