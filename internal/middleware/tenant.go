package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader identifies the calling project.
const APIKeyHeader = "x-api-key"

// Paths served without tenant identification.
var publicPaths = map[string]struct{}{
	"/":           {},
	"/health":     {},
	"/api/health": {},
	"/metrics":    {},
}

// Namespaces that stay reachable while a project is in maintenance.
var maintenanceExempt = []string{
	"/api/admin",
	"/api/integrations",
}

func IsPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

func maintenanceExemptPath(path string) bool {
	for _, prefix := range maintenanceExempt {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// TenantResolver is satisfied by *tenant.Resolver.
type TenantResolver interface {
	Resolve(ctx context.Context, apiKey string) (*tenant.Context, error)
}

// Tenant resolves the x-api-key header into a tenant context. Preflight
// requests without a key pass through untouched so CORS can answer them.
func Tenant(resolver TenantResolver, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsPublicPath(c.Path()) {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(APIKeyHeader))
		if key == "" {
			if c.Method() == fiber.MethodOptions {
				return c.Next()
			}
			m.Tenant(metrics.Missing)
			return apperr.AuthenticationRequired("API_KEY_REQUIRED", "x-api-key header is required")
		}

		t, err := resolver.Resolve(c.UserContext(), key)
		if errors.Is(err, tenant.ErrProjectNotFound) {
			m.Tenant(metrics.Invalid)
			slog.Warn("unknown api key", "ip", c.IP(), "path", c.Path())
			return apperr.InvalidCredential("INVALID_API_KEY", "Invalid API key")
		}
		if err != nil {
			return apperr.Internal(err)
		}

		if t.Maintenance && c.Method() != fiber.MethodOptions && !maintenanceExemptPath(c.Path()) {
			m.Tenant(metrics.Maintenance)
			return apperr.PolicyDenied("MAINTENANCE", "Project is under maintenance").
				WithStatus(fiber.StatusServiceUnavailable).
				WithDetail("project", t.Name)
		}

		tenant.Set(c, t)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.Scope().SetTag("project", t.Name)
		}
		m.Tenant(metrics.Allowed)
		return c.Next()
	}
}
