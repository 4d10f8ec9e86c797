package tenant

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FunctionState is a capability's effective state for one project.
type FunctionState struct {
	Enabled         bool `json:"enabled"`
	CustomRateLimit *int `json:"custom_rate_limit,omitempty"`
}

// Context is the resolved tenant attached to a request.
type Context struct {
	ProjectID    uuid.UUID                `json:"project_id"`
	Name         string                   `json:"name"`
	APIKey       string                   `json:"-"`
	Maintenance  bool                     `json:"maintenance"`
	FeatureFlags map[string]any           `json:"feature_flags"`
	Config       ProjectConfig            `json:"config"`
	Functions    map[string]FunctionState `json:"functions"`
}

// Function returns the state of a capability and whether the registry knows it.
func (t *Context) Function(name string) (FunctionState, bool) {
	st, ok := t.Functions[name]
	return st, ok
}

func (t *Context) IsPlatform() bool {
	return t.Config.IsPlatform
}

type localsKey int

const (
	tenantKey localsKey = iota
	functionKey
)

// Set attaches the tenant context to the request.
func Set(c *fiber.Ctx, t *Context) {
	c.Locals(tenantKey, t)
}

// From returns the request's tenant context, or nil when none was resolved.
func From(c *fiber.Ctx) *Context {
	t, _ := c.Locals(tenantKey).(*Context)
	return t
}

// SetFunction records the capability that admitted the request.
func SetFunction(c *fiber.Ctx, name string) {
	c.Locals(functionKey, name)
}

// FunctionName returns the capability that admitted the request, if any.
func FunctionName(c *fiber.Ctx) string {
	name, _ := c.Locals(functionKey).(string)
	return name
}
