package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// render injects the logged-in user, CSRF token and any pending flash
// message before handing off to the view engine.
func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	}
	if kind, msg := popFlash(c); msg != "" {
		data["FlashKind"] = kind
		data["FlashMsg"] = msg
	}
	return c.Render(tmpl, data)
}

// Flash messages ride a short-lived cookie: set on the redirecting request,
// consumed by the next render.

const flashCookie = "flash"

func setFlash(c *fiber.Ctx, kind, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func popFlash(c *fiber.Ctx) (kind, msg string) {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return "", ""
	}
	c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HTTPOnly: true})
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", ""
	}
	kind, msg, ok := strings.Cut(decoded, "|")
	if !ok {
		return "", ""
	}
	return kind, msg
}
