package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Deps is everything the route table needs besides the handlers.
type Deps struct {
	Catalog          *registry.Catalog
	Gate             *middleware.Gate
	Tenants          middleware.TenantResolver
	Origins          middleware.OriginLookup
	DashboardOrigins []string
	Session          fiber.Handler
	Admin            fiber.Handler
	Metrics          *metrics.Metrics
	// Per-IP budget across /api, on top of the per-function limits.
	RateLimitPerMinute int
}

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	OTP          *handlers.OTPHandler
	User         *handlers.UserHandler
	Notify       *handlers.NotifyHandler
	Admin        *handlers.AdminHandler
	Integrations *handlers.IntegrationsHandler
	System       *handlers.SystemHandler
}

// guard builds a route chain: the function gate, the session check when the
// function requires authentication, any extra checks, then the handler.
type guard struct {
	catalog *registry.Catalog
	gate    *middleware.Gate
	session fiber.Handler
}

func (g guard) fn(name string, handler fiber.Handler, extra ...fiber.Handler) []fiber.Handler {
	chain := []fiber.Handler{g.gate.Require(name)}
	if desc, _ := g.catalog.Get(name); desc.RequiresAuth {
		chain = append(chain, g.session)
	}
	chain = append(chain, extra...)
	return append(chain, handler)
}

func Setup(app *fiber.App, d Deps, h Handlers) {
	app.Use(d.Metrics.Middleware())
	app.Use(middleware.Tenant(d.Tenants, d.Metrics))
	app.Use(middleware.CORS(d.Origins, d.DashboardOrigins, d.Metrics))
	app.Use(middleware.SecurityHeaders())

	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", d.Metrics.Handler())

	api := app.Group("/api")
	api.Get("/health", h.Health.Check)

	if d.RateLimitPerMinute > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:               d.RateLimitPerMinute,
			Expiration:        1 * time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
			LimitReached: func(c *fiber.Ctx) error {
				return apperr.RateLimited("Too many requests")
			},
		}))
	}

	g := guard{catalog: d.Catalog, gate: d.Gate, session: d.Session}
	platform := middleware.RequirePlatform()

	auth := api.Group("/auth")
	auth.Post("/register", g.fn("auth.register", h.Auth.Register)...)
	auth.Post("/login", g.fn("auth.login", h.Auth.Login)...)
	auth.Post("/refresh", g.fn("auth.refresh", h.Auth.Refresh)...)
	auth.Post("/logout", g.fn("auth.logout", h.Auth.Logout)...)
	auth.Get("/session", g.fn("auth.session", h.Auth.Session)...)
	auth.Get("/me", g.fn("auth.me", h.Auth.Session)...)
	auth.Post("/forgot-password", g.fn("auth.forgot-password", h.Auth.ForgotPassword)...)
	auth.Post("/reset-password", g.fn("auth.reset-password", h.Auth.ResetPassword)...)
	auth.Post("/pfp", g.fn("auth.upload-pfp", h.Auth.UploadAvatar)...)
	auth.Post("/send-otp", g.fn("otp.send", h.OTP.Send)...)
	auth.Post("/verify-otp", g.fn("otp.verify", h.OTP.Verify)...)

	otp := api.Group("/otp")
	otp.Post("/send", g.fn("otp.send", h.OTP.Send)...)
	otp.Post("/verify", g.fn("otp.verify", h.OTP.Verify)...)

	user := api.Group("/user")
	user.Get("/:id", g.fn("user.get", h.User.Get)...)
	user.Get("/:id/details", g.fn("user.details", h.User.Details)...)
	user.Get("/:id/avatar", g.fn("user.avatar", h.User.Avatar)...)
	user.Get("/:id/metadata", g.fn("user.metadata", h.User.Metadata)...)

	notify := api.Group("/notify")
	notify.Post("/email", g.fn("notify.email", h.Notify.Email)...)
	notify.Post("/push", g.fn("notify.push", h.Notify.Push)...)
	notify.Post("/subscribe", g.fn("notify.subscribe", h.Notify.Subscribe)...)

	admin := api.Group("/admin")
	admin.Get("/users", g.fn("admin.list-users", h.Admin.ListUsers, d.Admin)...)
	admin.Patch("/user/:id", g.fn("admin.update-user", h.Admin.UpdateUser, d.Admin)...)
	admin.Delete("/user/:id", g.fn("admin.delete-user", h.Admin.DeleteUser, d.Admin)...)
	admin.Get("/site-settings", g.fn("admin.get-settings", h.Admin.GetSettings, d.Admin)...)
	admin.Patch("/site-settings", g.fn("admin.update-settings", h.Admin.UpdateSettings, d.Admin)...)
	admin.Get("/functions", g.fn("admin.list-functions", h.Admin.ListFunctions, d.Admin)...)
	admin.Get("/projects/:projectId/functions", g.fn("admin.project-functions", h.Admin.ProjectFunctions, d.Admin)...)
	admin.Patch("/projects/:projectId/functions/:functionId", g.fn("admin.toggle-function", h.Admin.ToggleFunction, d.Admin)...)
	admin.Put("/projects/:projectId/origins", g.fn("admin.update-origins", h.Admin.UpdateOrigins, d.Admin, platform)...)

	integrations := api.Group("/integrations")
	integrations.Get("/", g.fn("integrations.list-projects", h.Integrations.List, d.Admin, platform)...)
	integrations.Post("/", g.fn("integrations.add-project", h.Integrations.Create, d.Admin, platform)...)
	integrations.Patch("/:id/maintenance", g.fn("integrations.toggle-maintenance", h.Integrations.SetMaintenance, d.Admin, platform)...)
	integrations.Patch("/:id/feature-flags", g.fn("integrations.update-feature-flags", h.Integrations.SetFeatureFlags, d.Admin, platform)...)
	integrations.Delete("/:id", g.fn("integrations.delete-project", h.Integrations.Delete, d.Admin, platform)...)

	analytics := api.Group("/analytics")
	analytics.Get("/auth-attempts", g.fn("analytics.auth-attempts", h.System.AuthAttempts, d.Admin)...)
	analytics.Get("/users-registered", g.fn("analytics.users-registered", h.System.UsersRegistered, d.Admin)...)

	system := api.Group("/system")
	system.Get("/stats", g.fn("system.stats", h.System.Stats, d.Admin)...)
	system.Get("/recent-activity", g.fn("system.activity", h.System.RecentActivity, d.Admin)...)
	system.Get("/registry", g.fn("system.registry", h.System.Registry)...)
}
