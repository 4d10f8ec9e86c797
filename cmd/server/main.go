package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/database"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/logging"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/routes"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	stdout := logging.Setup(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Capability catalog
	catalog, err := registry.Default()
	if err != nil {
		slog.Error("invalid function catalog", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := registry.Sync(ctx, db, catalog); err != nil {
		slog.Error("function registry sync failed", "error", err)
		os.Exit(1)
	}
	slog.Info("function registry synced", "functions", catalog.Len())

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetention, cleanupDone)

	// Tenant resolution, optionally cached in Redis
	resolver := tenant.NewResolver(tenant.NewGormStore(db))
	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		resolver.WithCache(tenant.NewRedisCache(rdb), cfg.TenantCacheTTL)
		slog.Info("tenant cache enabled", "ttl", cfg.TenantCacheTTL.String())
	}

	// Notification providers
	var emailSender notify.EmailSender = notify.LogSender{}
	if cfg.BrevoAPIKey != "" {
		emailSender = notify.NewBrevoSender(notify.BrevoConfig{
			APIKey:      cfg.BrevoAPIKey,
			APIURL:      cfg.BrevoAPIURL,
			SenderEmail: cfg.BrevoSenderEmail,
			SenderName:  cfg.BrevoSenderName,
		})
	} else {
		slog.Warn("BREVO_API_KEY not set, emails are only logged")
	}
	var pushSender notify.PushSender = notify.Unconfigured{}
	if cfg.FCMServerKey != "" {
		pushSender = notify.NewFCMSender(cfg.FCMServerKey, cfg.FCMAPIURL)
	}

	// Services
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.RefreshSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	notifyService := services.NewNotifyService(db, emailSender, pushSender, cfg.NotifyTimeout)
	otpService := services.NewOTPService(db, notifyService, cfg.OTPTTL, cfg.OTPMaxAttempts)
	analyticsService := services.NewAnalyticsService(db)
	auditService := services.NewAuditService(db)
	settingsService := services.NewSettingsService(db, auditService)
	authService, err := services.NewAuthService(db, issuer, otpService, analyticsService, settingsService, services.AuthOptions{
		BcryptCost:  cfg.BcryptCost,
		RotateOnUse: cfg.RefreshRotateOnUse,
	})
	if err != nil {
		slog.Error("auth service init failed", "error", err)
		os.Exit(1)
	}
	adminService := services.NewAdminService(db, auditService, resolver)
	projectService := services.NewProjectService(db, auditService, resolver)
	systemService := services.NewSystemService(db)
	userService := services.NewUserService(db)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	// Per-function rate limiting
	limiter := ratelimit.New(10 * time.Minute)
	go limiter.Run(ctx, time.Minute)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))

	cookies := handlers.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Domain:   cfg.CookieDomain,
	}
	routes.Setup(app, routes.Deps{
		Catalog:            catalog,
		Gate:               middleware.NewGate(catalog, limiter, m),
		Tenants:            resolver,
		Origins:            resolver,
		DashboardOrigins:   cfg.DashboardOrigins,
		Session:            middleware.RequireSession(issuer),
		Admin:              middleware.RequireAdmin(db, cfg.AdminEmails),
		Metrics:            m,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, routes.Handlers{
		Health:       handlers.NewHealthHandler(db, catalog),
		Auth:         handlers.NewAuthHandler(authService, cookies, m),
		OTP:          handlers.NewOTPHandler(otpService),
		User:         handlers.NewUserHandler(userService),
		Notify:       handlers.NewNotifyHandler(notifyService),
		Admin:        handlers.NewAdminHandler(adminService, settingsService),
		Integrations: handlers.NewIntegrationsHandler(projectService),
		System:       handlers.NewSystemHandler(systemService, analyticsService, catalog),
	})

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}
	slog.Info("server stopped")
}
