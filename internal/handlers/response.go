package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func success(c *fiber.Ctx, message string, data any) error {
	return c.JSON(dto.Success(message, data))
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(dto.Success(message, data))
}

// currentTenant returns the resolved project. Routes are always mounted
// behind the gate, so a nil tenant is a wiring error.
func currentTenant(c *fiber.Ctx) (*tenant.Context, error) {
	t := tenant.From(c)
	if t == nil {
		return nil, apperr.AuthenticationRequired("API_KEY_REQUIRED", "x-api-key header is required")
	}
	return t, nil
}

// currentUserID reads the subject of the verified access token.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims := middleware.Session(c)
	if claims == nil {
		return uuid.Nil, apperr.AuthenticationRequired("SESSION_REQUIRED", "No active session")
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, apperr.AuthenticationRequired("SESSION_REQUIRED", "No active session")
	}
	return id, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("INVALID_ID", name+" must be a UUID").WithDetail("field", name)
	}
	return id, nil
}
