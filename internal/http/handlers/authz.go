package handlers

import (
	"github.com/gofiber/fiber/v2"

	"linenloft/internal/domain"
	applog "linenloft/internal/log"
	"linenloft/internal/services"
)

// RequireUser redirects anonymous visitors to the login page.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			setFlash(c, "error", "Please log in to continue")
			return c.Redirect("/auth/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			setFlash(c, "error", "Please log in to continue")
			return c.Redirect("/auth/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdmin gates the back office on the admin role.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/auth/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
