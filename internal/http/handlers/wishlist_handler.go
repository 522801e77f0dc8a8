package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "linenloft/internal/log"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

type WishlistHandler struct {
	Wish     *services.WishlistService
	Sessions Sessions
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	items, err := h.Wish.List(sid)
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load wishlist"})
	}
	return render(c, "wishlist", fiber.Map{"Items": items})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Wish.Save(sid, pid); err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not save item")
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	back := c.Get("Referer")
	if back == "" {
		back = "/wishlist"
	}
	return c.Redirect(back)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Wish.Remove(sid, pid); err != nil {
		applog.Error(c, "wishlist.remove.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not remove item")
	}
	return c.Redirect("/wishlist")
}
