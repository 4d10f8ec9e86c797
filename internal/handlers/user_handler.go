package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.UserContext(), t, id)
	if err != nil {
		return err
	}
	return success(c, "User retrieved", user)
}

func (h *UserHandler) Details(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Details(c.UserContext(), t, id)
	if err != nil {
		return err
	}
	return success(c, "User details retrieved", user)
}

func (h *UserHandler) Avatar(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	avatar, err := h.userService.Avatar(c.UserContext(), t, id)
	if err != nil {
		return err
	}
	return success(c, "Avatar retrieved", fiber.Map{"avatar_url": avatar})
}

func (h *UserHandler) Metadata(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	meta, err := h.userService.Metadata(c.UserContext(), t, id)
	if err != nil {
		return err
	}
	return success(c, "Metadata retrieved", fiber.Map{"metadata": meta})
}
