package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/gofiber/fiber/v2"
)

// CookieConfig controls the attributes of the session cookies. Both cookies
// are always HTTP-only.
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

func (cc CookieConfig) set(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
	})
}

func (cc CookieConfig) clear(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cc.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
	})
}

// setSession writes whichever credentials the session minted.
func (cc CookieConfig) setSession(c *fiber.Ctx, s *services.Session) {
	if s.Access != nil {
		cc.set(c, middleware.AccessCookie, s.Access.Value, s.Access.ExpiresAt)
	}
	if s.Refresh != nil {
		cc.set(c, middleware.RefreshCookie, s.Refresh.Value, s.Refresh.ExpiresAt)
	}
}

func (cc CookieConfig) clearSession(c *fiber.Ctx) {
	cc.clear(c, middleware.AccessCookie)
	cc.clear(c, middleware.RefreshCookie)
}
