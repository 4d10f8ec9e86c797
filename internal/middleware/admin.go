package middleware

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireAdmin admits users whose stored role is admin in the calling
// project. The configured admin emails are honored only on the platform
// project and only for a user who has verified that email, since any project
// key holder can register an arbitrary address. The role claim in the token
// is not trusted because it outlives a demotion. Must run after
// RequireSession.
func RequireAdmin(db *gorm.DB, adminEmails []string) fiber.Handler {
	emails := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		emails = append(emails, strings.ToLower(strings.TrimSpace(e)))
	}

	return func(c *fiber.Ctx) error {
		claims := Session(c)
		t := tenant.From(c)
		if claims == nil || t == nil {
			return noSession()
		}

		userID, err := claims.UserID()
		if err != nil {
			return noSession()
		}
		var user models.User
		err = db.WithContext(c.UserContext()).
			Scopes(tenant.ForProject(t.ProjectID)).
			Select("id", "email", "role", "email_verified").
			First(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return noSession()
		}
		if err != nil {
			return apperr.Internal(err)
		}

		if user.Role == models.RoleAdmin {
			return c.Next()
		}
		if t.IsPlatform() && user.EmailVerified && slices.Contains(emails, strings.ToLower(user.Email)) {
			return c.Next()
		}

		slog.Warn("admin access denied", "user_id", userID.String(), "project", t.Name)
		return apperr.PolicyDenied("ADMIN_REQUIRED", "Admin access required")
	}
}

// RequirePlatform restricts a route to the platform project.
func RequirePlatform() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t := tenant.From(c)
		if t == nil || !t.IsPlatform() {
			return apperr.PolicyDenied("PLATFORM_REQUIRED", "Only the platform project can perform this action")
		}
		return c.Next()
	}
}
