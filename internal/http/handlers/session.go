package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"linenloft/internal/services"
)

// Sessions mints the sid cookie: HTTP-only, Lax, 24 h expiry, Secure
// according to the deployment environment.
type Sessions struct {
	Secure bool
}

func (s Sessions) EnsureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   s.Secure,
			Expires:  time.Now().Add(services.SessionTTL),
		})
	}
	return sid
}

func (s Sessions) ExpireSID(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
