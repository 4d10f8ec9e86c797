package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

type OTPHandler struct {
	otpService *services.OTPService
}

func NewOTPHandler(otpService *services.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

func purposeOrDefault(p string) string {
	if p == "" {
		return models.OTPPurposeEmailVerification
	}
	return p
}

func (h *OTPHandler) Send(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	if err := h.otpService.Send(c.UserContext(), t, req.Email, purposeOrDefault(req.Purpose)); err != nil {
		return err
	}
	return success(c, "OTP sent", nil)
}

func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	if err := h.otpService.Verify(c.UserContext(), t.ProjectID, req.Email, req.OTP, purposeOrDefault(req.Purpose)); err != nil {
		return err
	}
	return success(c, "OTP verified", fiber.Map{"verified": true})
}
