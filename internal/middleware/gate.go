package middleware

import (
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// Gate admits a route only when its capability is enabled for the calling
// project, and meters it per project, capability and client IP.
type Gate struct {
	catalog *registry.Catalog
	limiter *ratelimit.Keyed
	metrics *metrics.Metrics
}

func NewGate(catalog *registry.Catalog, limiter *ratelimit.Keyed, m *metrics.Metrics) *Gate {
	return &Gate{catalog: catalog, limiter: limiter, metrics: m}
}

// Require returns the gate for one capability. It panics when the name is not
// in the catalog so a mistyped route fails at startup.
func (g *Gate) Require(name string) fiber.Handler {
	desc, ok := g.catalog.Get(name)
	if !ok {
		panic(fmt.Sprintf("gate: function %q is not in the catalog", name))
	}
	tierLimit := registry.TierLimit(desc.RateLimitTier)

	return func(c *fiber.Ctx) error {
		t := tenant.From(c)
		if t == nil {
			g.metrics.Gate(name, metrics.Missing)
			return apperr.AuthenticationRequired("API_KEY_REQUIRED", "x-api-key header is required")
		}

		state, known := t.Function(name)
		if !known {
			g.metrics.Gate(name, metrics.Unknown)
			return apperr.NotFound("FUNCTION_NOT_FOUND", "Function "+name+" does not exist").
				WithDetail("function", name)
		}
		if !state.Enabled {
			g.metrics.Gate(name, metrics.Disabled)
			slog.Info("function disabled", "function", name, "project", t.Name)
			return apperr.PolicyDenied("FUNCTION_DISABLED", fmt.Sprintf("Function %s is disabled for project %s", name, t.Name)).
				WithDetail("function", name).
				WithDetail("project", t.Name)
		}

		limit := tierLimit
		if state.CustomRateLimit != nil {
			limit = *state.CustomRateLimit
		}
		key := t.ProjectID.String() + "|" + name + "|" + c.IP()
		if !g.limiter.Allow(key, limit) {
			g.metrics.Gate(name, metrics.Limited)
			return apperr.RateLimited("Too many requests for "+name).
				WithDetail("function", name).
				WithDetail("limit_per_minute", limit)
		}

		g.metrics.Gate(name, metrics.Allowed)
		tenant.SetFunction(c, name)
		return c.Next()
	}
}
