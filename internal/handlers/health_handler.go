package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/database"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	catalog *registry.Catalog
}

func NewHealthHandler(db *gorm.DB, catalog *registry.Catalog) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbStatus := "ok", "ok"
	if err := database.Ping(ctx, h.db); err != nil {
		slog.Error("health check database ping failed", "error", err)
		status, dbStatus = "degraded", "unhealthy"
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Functions: h.catalog.Len(),
	})
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return success(c, "Saturn platform API", fiber.Map{
		"functions": h.catalog.Len(),
		"health":    "/health",
	})
}
