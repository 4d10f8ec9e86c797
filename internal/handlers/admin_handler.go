package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the per-project control plane. Every route runs behind
// RequireSession and RequireAdmin.
type AdminHandler struct {
	adminService    *services.AdminService
	settingsService *services.SettingsService
}

func NewAdminHandler(adminService *services.AdminService, settingsService *services.SettingsService) *AdminHandler {
	return &AdminHandler{adminService: adminService, settingsService: settingsService}
}

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	settings, err := h.settingsService.Get(c.UserContext(), t)
	if err != nil {
		return err
	}
	return success(c, "Settings retrieved", settings)
}

func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSiteSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	settings, err := h.settingsService.Update(c.UserContext(), t, adminID, &req)
	if err != nil {
		return err
	}
	return success(c, "Settings updated", settings)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	users, total, err := h.adminService.ListUsers(c.UserContext(), t, limit, offset)
	if err != nil {
		return err
	}
	return success(c, "Users retrieved", fiber.Map{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	user, err := h.adminService.UpdateUser(c.UserContext(), t, adminID, userID, &req)
	if err != nil {
		return err
	}
	return success(c, "User updated", user)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.adminService.DeleteUser(c.UserContext(), t, adminID, userID); err != nil {
		return err
	}
	return success(c, "User deleted", nil)
}

func (h *AdminHandler) ListFunctions(c *fiber.Ctx) error {
	fns, err := h.adminService.ListFunctions(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, "Functions retrieved", fns)
}

func (h *AdminHandler) ProjectFunctions(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "projectId")
	if err != nil {
		return err
	}

	views, err := h.adminService.ProjectFunctions(c.UserContext(), t, projectID)
	if err != nil {
		return err
	}
	return success(c, "Project functions retrieved", views)
}

// ToggleFunction accepts a numeric function id or a function name.
func (h *AdminHandler) ToggleFunction(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "projectId")
	if err != nil {
		return err
	}
	var req dto.ToggleFunctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	view, err := h.adminService.ToggleFunction(c.UserContext(), t, adminID, projectID, c.Params("functionId"), &req)
	if err != nil {
		return err
	}
	return success(c, "Function updated", view)
}

func (h *AdminHandler) UpdateOrigins(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := uuidParam(c, "projectId")
	if err != nil {
		return err
	}
	var req dto.UpdateOriginsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	project, err := h.adminService.UpdateOrigins(c.UserContext(), t, adminID, projectID, req.Origins)
	if err != nil {
		return err
	}
	return success(c, "Allowed origins updated", fiber.Map{
		"project_id": project.ID,
		"config":     project.Config,
	})
}
