package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SystemHandler struct {
	systemService    *services.SystemService
	analyticsService *services.AnalyticsService
	catalog          *registry.Catalog
}

func NewSystemHandler(systemService *services.SystemService, analyticsService *services.AnalyticsService, catalog *registry.Catalog) *SystemHandler {
	return &SystemHandler{systemService: systemService, analyticsService: analyticsService, catalog: catalog}
}

func (h *SystemHandler) Stats(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	stats, err := h.systemService.Stats(c.UserContext(), t)
	if err != nil {
		return err
	}
	return success(c, "Stats retrieved", stats)
}

func (h *SystemHandler) RecentActivity(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	activity, err := h.systemService.RecentActivity(c.UserContext(), t, c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return success(c, "Recent activity retrieved", activity)
}

func (h *SystemHandler) Registry(c *fiber.Ctx) error {
	return success(c, "Function registry", fiber.Map{
		"count":     h.catalog.Len(),
		"functions": h.catalog.All(),
	})
}

func (h *SystemHandler) AuthAttempts(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	events, err := h.analyticsService.AuthAttempts(c.UserContext(), t.ProjectID, c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	return success(c, "Auth attempts retrieved", events)
}

func (h *SystemHandler) UsersRegistered(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	events, err := h.analyticsService.UsersRegistered(c.UserContext(), t.ProjectID, c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	return success(c, "Registrations retrieved", events)
}
