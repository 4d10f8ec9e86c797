package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandler renders every error returned by middleware or handlers as the
// failure envelope. Server errors are logged and sent to Sentry; their
// message never reaches the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	ae := Translate(err)

	if ae.Status >= fiber.StatusInternalServerError {
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, "trace_id", rid)
		}
		if t := tenant.From(c); t != nil {
			attrs = append(attrs, "project_id", t.ProjectID.String())
		}
		slog.Error("request failed", attrs...)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}

	return c.Status(ae.Status).JSON(dto.Failure(ae.Message, dto.ErrorBody{
		Kind:    string(ae.Kind),
		Code:    ae.Code,
		Details: ae.Details,
	}))
}

// Translate maps service sentinels and framework errors onto the error
// taxonomy. Unknown errors become Internal.
func Translate(err error) *apperr.AppError {
	if ae := apperr.As(err); ae != nil {
		return ae
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return apperr.Validation("VALIDATION_FAILED", verr.Message).WithDetail("field", verr.Field)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code >= fiber.StatusInternalServerError:
			return apperr.Internal(err)
		case fe.Code == fiber.StatusNotFound:
			return apperr.NotFound("ROUTE_NOT_FOUND", fe.Message)
		default:
			return apperr.Validation("BAD_REQUEST", fe.Message).WithStatus(fe.Code)
		}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, services.ErrSessionRevoked),
		errors.Is(err, services.ErrSessionWrongProject):
		return apperr.AuthenticationRequired("SESSION_REQUIRED", "No active session").WithCause(err)
	case errors.Is(err, services.ErrInvalidCredentials):
		return apperr.InvalidCredential("INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, services.ErrOTPInvalid):
		return apperr.InvalidCredential("OTP_INVALID", "Invalid or expired OTP").WithStatus(fiber.StatusBadRequest)
	case errors.Is(err, services.ErrOTPAttemptsExceeded):
		ae := apperr.RateLimited("Too many attempts, request a new code")
		ae.Code = "OTP_ATTEMPTS_EXCEEDED"
		return ae
	case errors.Is(err, services.ErrRegistrationClosed):
		return apperr.PolicyDenied("REGISTRATION_CLOSED", "Registration is disabled for this project")
	case errors.Is(err, services.ErrForeignProject):
		return apperr.PolicyDenied("FOREIGN_PROJECT", "Admins may only manage their own project")
	case errors.Is(err, services.ErrUserExists):
		return apperr.Conflict("USER_EXISTS", "User already exists")
	case errors.Is(err, services.ErrProjectExists):
		return apperr.Conflict("PROJECT_EXISTS", "Project name already exists")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("DUPLICATE", "Resource already exists")
	case errors.Is(err, services.ErrUserNotFound):
		return apperr.NotFound("USER_NOT_FOUND", "User not found")
	case errors.Is(err, services.ErrProjectNotFound), errors.Is(err, tenant.ErrProjectNotFound):
		return apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	case errors.Is(err, services.ErrFunctionNotFound):
		return apperr.NotFound("FUNCTION_NOT_FOUND", "Function not found")
	case errors.Is(err, services.ErrNotificationFailed):
		return apperr.Upstream("NOTIFICATION_FAILED", "Notification delivery failed", err)
	}
	return apperr.Internal(err)
}

func badBody() error {
	return apperr.Validation("INVALID_BODY", "Invalid request body")
}
