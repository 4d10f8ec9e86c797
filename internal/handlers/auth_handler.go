package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	cookies     CookieConfig
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService *services.AuthService, cookies CookieConfig, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, metrics: m}
}

func sessionUser(u *models.User) dto.SessionUser {
	return dto.SessionUser{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	user, err := h.authService.Register(c.UserContext(), t, &req)
	if err != nil {
		return err
	}
	return created(c, "User registered successfully", fiber.Map{"user": sessionUser(user)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	session, err := h.authService.Login(c.UserContext(), t, &req)
	if err != nil {
		return err
	}
	h.cookies.setSession(c, session)
	return success(c, "Login successful", fiber.Map{"user": sessionUser(session.User)})
}

// Refresh reads the refresh token from its cookie, or from the body for
// clients that do not keep cookies.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	token := c.Cookies(middleware.RefreshCookie)
	if token == "" {
		var req dto.RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			token = req.RefreshToken
		}
	}

	session, err := h.authService.Refresh(c.UserContext(), t, token)
	if err != nil {
		return h.sessionFailed(c, err)
	}
	h.metrics.Refresh(metrics.Allowed)
	h.cookies.setSession(c, session)
	return success(c, "Token refreshed", dto.SessionResponse{Authenticated: true, User: sessionUser(session.User)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.UserContext(), t, userID); err != nil {
		return err
	}
	h.cookies.clearSession(c)
	return success(c, "Logged out successfully", nil)
}

// Session reports the current user. An expired access token is replaced
// silently when the refresh token is still valid.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	access := c.Cookies(middleware.AccessCookie)
	if access == "" {
		access = bearerToken(c)
	}

	session, err := h.authService.CheckSession(c.UserContext(), t, access, c.Cookies(middleware.RefreshCookie))
	if err != nil {
		return h.sessionFailed(c, err)
	}
	if session.Access != nil {
		h.metrics.Refresh(metrics.Allowed)
		h.cookies.setSession(c, session)
	}
	return success(c, "Authenticated", dto.SessionResponse{Authenticated: true, User: sessionUser(session.User)})
}

// sessionFailed clears both cookies and answers with the same "no session"
// response whatever the cause.
func (h *AuthHandler) sessionFailed(c *fiber.Ctx, err error) error {
	if !isSessionError(err) {
		return err
	}
	h.metrics.Refresh(metrics.Denied)
	slog.Debug("session rejected", "path", c.Path(), "reason", err.Error())
	h.cookies.clearSession(c)
	return apperr.AuthenticationRequired("SESSION_REQUIRED", "No active session").WithCause(err)
}

func isSessionError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, services.ErrSessionRevoked) ||
		errors.Is(err, services.ErrSessionWrongProject) ||
		errors.Is(err, services.ErrUserNotFound)
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	if err := h.authService.ForgotPassword(c.UserContext(), t, req.Email); err != nil {
		return err
	}
	return success(c, "If an account exists for this email, a reset code has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	if err := h.authService.ResetPassword(c.UserContext(), t, &req); err != nil {
		return err
	}
	h.cookies.clearSession(c)
	return success(c, "Password has been reset", nil)
}

func (h *AuthHandler) UploadAvatar(c *fiber.Ctx) error {
	t, err := currentTenant(c)
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.UploadAvatarRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	user, err := h.authService.UpdateAvatar(c.UserContext(), t, userID, req.AvatarURL)
	if err != nil {
		return err
	}
	return success(c, "Avatar updated", fiber.Map{"avatar_url": user.AvatarURL})
}
