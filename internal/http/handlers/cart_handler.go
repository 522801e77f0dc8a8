package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "linenloft/internal/log"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

type CartHandler struct {
	Cart     *services.CartService
	Sessions Sessions
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	view, err := h.Cart.View(sid)
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": view})
}

// Add is a JSON endpoint; the same (product, size, color) combination
// increments the existing line instead of duplicating it.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	qty := validate.Qty(c.FormValue("qty"))
	size := c.FormValue("size")
	color := c.FormValue("color")

	if err := h.Cart.Add(sid, productID, size, color, qty); err != nil {
		if _, gone := err.(services.ErrProductGone); gone {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": productID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	return h.countResponse(c, sid)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing item id"})
	}
	qty := validate.Qty(c.FormValue("qty"))
	if err := h.Cart.UpdateQty(sid, itemID, qty); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found in cart"})
	}

	view, err := h.Cart.View(sid)
	if err != nil {
		applog.Error(c, "cart.update.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	return c.JSON(fiber.Map{"success": true, "cartCount": view.Count, "subtotal": view.Totals.Subtotal})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing item id"})
	}
	if err := h.Cart.Remove(sid, itemID); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"item": itemID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	return h.countResponse(c, sid)
}

func (h *CartHandler) countResponse(c *fiber.Ctx, sid string) error {
	view, err := h.Cart.View(sid)
	if err != nil {
		// the mutation succeeded; report that even if the recount failed
		applog.Error(c, "cart.count.fail", err, nil)
		return c.JSON(fiber.Map{"success": true})
	}
	return c.JSON(fiber.Map{"success": true, "cartCount": view.Count})
}
