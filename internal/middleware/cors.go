package middleware

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Origin, Content-Type, Accept, Authorization, X-API-Key"
	corsMaxAge       = "600"
)

// Where an origin decision came from, used as a metrics label.
const (
	sourceNoOrigin  = "no_origin"
	sourcePublic    = "public"
	sourceTenant    = "tenant"
	sourceReverse   = "reverse_lookup"
	sourceDashboard = "dashboard"
	sourceNone      = "none"
)

// OriginLookup answers whether any project allows an origin.
type OriginLookup interface {
	OriginAllowedAnywhere(ctx context.Context, origin string) (bool, error)
}

// CORS evaluates the Origin header against the resolved project's exact
// allow-list. Without a project it falls back to a reverse lookup across all
// projects, then to the first-party dashboard origins. Allowed origins are
// echoed back verbatim; the wildcard is never sent.
func CORS(lookup OriginLookup, dashboardOrigins []string, m *metrics.Metrics) fiber.Handler {
	dashboard := slices.Clone(dashboardOrigins)

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			m.CORS(metrics.Allowed, sourceNoOrigin)
			return c.Next()
		}

		c.Vary(fiber.HeaderOrigin)
		if IsPublicPath(c.Path()) {
			m.CORS(metrics.Allowed, sourcePublic)
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			if c.Method() == fiber.MethodOptions {
				c.Set(fiber.HeaderAccessControlAllowMethods, "GET, OPTIONS")
				return c.SendStatus(fiber.StatusNoContent)
			}
			return c.Next()
		}

		allowed, source := false, sourceNone
		if t := tenant.From(c); t != nil {
			if t.Config.AllowsOrigin(origin) {
				allowed, source = true, sourceTenant
			}
		} else {
			ok, err := lookup.OriginAllowedAnywhere(c.UserContext(), origin)
			if err != nil {
				slog.Warn("origin reverse lookup failed", "origin", origin, "error", err)
			}
			if ok {
				allowed, source = true, sourceReverse
			}
		}
		if !allowed && slices.Contains(dashboard, origin) {
			allowed, source = true, sourceDashboard
		}

		if !allowed {
			m.CORS(metrics.Denied, source)
			project := ""
			if t := tenant.From(c); t != nil {
				project = t.Name
			}
			slog.Warn("cors origin denied", "origin", origin, "project", project, "method", c.Method())
			if c.Method() == fiber.MethodOptions {
				c.Status(fiber.StatusForbidden)
				return nil
			}
			return apperr.InvalidCredential("ORIGIN_NOT_ALLOWED", "Origin "+origin+" is not allowed").
				WithStatus(fiber.StatusForbidden).
				WithDetail("origin", origin)
		}

		m.CORS(metrics.Allowed, source)
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlExposeHeaders, fiber.HeaderXRequestID)
		if c.Method() == fiber.MethodOptions {
			c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
			c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			c.Set(fiber.HeaderAccessControlMaxAge, corsMaxAge)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
