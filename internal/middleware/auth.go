package middleware

import (
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	sessionKey = "session"
)

func noSession() error {
	return apperr.AuthenticationRequired("SESSION_REQUIRED", "No active session")
}

// RequireSession verifies the access token from the cookie, or from a Bearer
// header for non-browser clients, and checks that it was issued for the
// calling project.
func RequireSession(issuer *auth.Issuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: issuer.AccessKey()},
		TokenLookup: "cookie:" + AccessCookie + ",header:" + fiber.HeaderAuthorization,
		AuthScheme:  "Bearer",
		ContextKey:  sessionKey,
		Claims:      &auth.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims := Session(c)
			if claims == nil || claims.Type != auth.TypeAccess {
				return noSession()
			}
			t := tenant.From(c)
			if t == nil || claims.ProjectID != t.ProjectID.String() {
				return noSession()
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return noSession()
		},
	})
}

// Session returns the verified access claims, or nil outside RequireSession.
func Session(c *fiber.Ctx) *auth.Claims {
	token, ok := c.Locals(sessionKey).(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, _ := token.Claims.(*auth.Claims)
	return claims
}
