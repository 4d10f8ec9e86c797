package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

// IntegrationsHandler manages projects. Mounted for platform admins only.
type IntegrationsHandler struct {
	projectService *services.ProjectService
}

func NewIntegrationsHandler(projectService *services.ProjectService) *IntegrationsHandler {
	return &IntegrationsHandler{projectService: projectService}
}

func (h *IntegrationsHandler) List(c *fiber.Ctx) error {
	projects, err := h.projectService.List(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, "Projects retrieved", projects)
}

func (h *IntegrationsHandler) Create(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	project, err := h.projectService.Create(c.UserContext(), t, adminID, req.Name)
	if err != nil {
		return err
	}
	return created(c, "Project created", project)
}

func (h *IntegrationsHandler) SetMaintenance(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ToggleMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	if req.IsMaintenance == nil {
		return apperr.Validation("VALIDATION_FAILED", "is_maintenance is required").WithDetail("field", "is_maintenance")
	}

	project, err := h.projectService.SetMaintenance(c.UserContext(), t, adminID, projectID, *req.IsMaintenance)
	if err != nil {
		return err
	}
	return success(c, "Maintenance mode updated", project)
}

func (h *IntegrationsHandler) SetFeatureFlags(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateFeatureFlagsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	project, err := h.projectService.SetFeatureFlags(c.UserContext(), t, adminID, projectID, req.FeatureFlags)
	if err != nil {
		return err
	}
	return success(c, "Feature flags updated", project)
}

func (h *IntegrationsHandler) Delete(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.projectService.Delete(c.UserContext(), t, adminID, projectID); err != nil {
		return err
	}
	return success(c, "Project deleted", nil)
}
