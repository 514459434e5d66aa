// Package access is the capability-check boundary. Permissions are resolved
// by an external service; the designer consumes them read-only through this
// interface and never enforces anything server-side.
package access

import "sync"

// Checker answers boolean capability questions for the current session.
// Implementations must be safe for concurrent use.
type Checker interface {
	HasPermission(resource, action string) bool
	HasRole(name string) bool
}

// Resources and actions the designer gates on.
const (
	ResourceWorkflows = "workflows"

	ActionView     = "view"
	ActionEdit     = "edit"
	ActionSimulate = "simulate"
)

// StaticChecker is an in-memory Checker seeded with explicit grants.
// Constructed at the application root and injected wherever gating is
// needed; there is no package-level instance.
type StaticChecker struct {
	mu    sync.RWMutex
	perms map[string]map[string]bool
	roles map[string]bool
}

// NewStaticChecker creates an empty StaticChecker (everything denied).
func NewStaticChecker() *StaticChecker {
	return &StaticChecker{
		perms: make(map[string]map[string]bool),
		roles: make(map[string]bool),
	}
}

// AllowAll returns a checker granting every designer capability. Used by the
// demo CLI and tests.
func AllowAll() *StaticChecker {
	c := NewStaticChecker()
	for _, action := range []string{ActionView, ActionEdit, ActionSimulate} {
		c.Grant(ResourceWorkflows, action)
	}
	c.GrantRole("analyst")
	return c
}

// Grant allows an action on a resource.
func (c *StaticChecker) Grant(resource, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.perms[resource] == nil {
		c.perms[resource] = make(map[string]bool)
	}
	c.perms[resource][action] = true
}

// GrantRole adds a role.
func (c *StaticChecker) GrantRole(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[name] = true
}

// HasPermission reports whether action is allowed on resource.
func (c *StaticChecker) HasPermission(resource, action string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perms[resource][action]
}

// HasRole reports whether the session carries the role.
func (c *StaticChecker) HasRole(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles[name]
}
