package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotifyHandler struct {
	notifyService *services.NotifyService
}

func NewNotifyHandler(notifyService *services.NotifyService) *NotifyHandler {
	return &NotifyHandler{notifyService: notifyService}
}

func (h *NotifyHandler) Email(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.SendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	msg := notify.Email{To: req.To, Subject: req.Subject, Text: req.Body}
	if err := h.notifyService.SendEmail(c.UserContext(), t.ProjectID, &userID, msg); err != nil {
		return err
	}
	return success(c, "Email sent", nil)
}

func (h *NotifyHandler) Push(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.SendPushRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	msg := notify.Push{Token: req.Token, Title: req.Title, Body: req.Body}
	if err := h.notifyService.SendPush(c.UserContext(), t.ProjectID, &userID, msg); err != nil {
		return err
	}
	return success(c, "Push notification sent", nil)
}

func (h *NotifyHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	if err := h.notifyService.Subscribe(c.UserContext(), userID, req.Token); err != nil {
		return err
	}
	return success(c, "Subscribed to push notifications", nil)
}
