package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "linenloft/internal/log"
	"linenloft/internal/repos"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

type CheckoutHandler struct {
	Cart     *services.CartService
	Order    *services.OrderService
	Users    *repos.UserRepo
	Sessions Sessions

	RazorpayKeyID string
}

// Checkout renders the cart summary, the user's saved addresses and the
// public gateway key for the hosted payment widget.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)
	sid := h.Sessions.EnsureSID(c)

	view, err := h.Cart.View(sid)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	if len(view.Lines) == 0 {
		setFlash(c, "error", "Your cart is empty")
		return c.Redirect("/cart")
	}
	addresses, err := h.Users.Addresses(u.ID)
	if err != nil {
		return err
	}
	return render(c, "checkout", fiber.Map{
		"Cart":        view,
		"Addresses":   addresses,
		"RazorpayKey": h.RazorpayKeyID,
	})
}

// PlaceOrder persists a pending order and branches on the payment method.
// Responses are JSON: the checkout page drives the gateway widget (online)
// or redirects to the confirmation page (cod) client-side.
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	u := currentUser(c)
	sid := h.Sessions.EnsureSID(c)

	addressID, ok := validate.ID(c.FormValue("addressId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "addressId"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid address"})
	}
	method := strings.ToLower(strings.TrimSpace(c.FormValue("paymentMethod")))
	note := validate.Truncate(strings.TrimSpace(c.FormValue("note")), 500)

	res, err := h.Order.Place(sid, u, addressID, method, note)
	if err != nil {
		switch err.(type) {
		case services.ErrInsufficientStock:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		switch err {
		case services.ErrBadAddress, services.ErrEmptyCart:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "order.place.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not place order"})
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": res.OrderID, "receipt": res.Receipt, "method": res.PaymentMethod,
	})
	body := fiber.Map{
		"success":       true,
		"orderId":       res.OrderID,
		"paymentMethod": res.PaymentMethod,
	}
	if res.PaymentMethod == "online" {
		body["razorpayOrderId"] = res.GatewayOrderID
	}
	return c.JSON(body)
}

// VerifyPayment is the client-side gateway callback. A bad signature leaves
// the order untouched.
func (h *CheckoutHandler) VerifyPayment(c *fiber.Ctx) error {
	u := currentUser(c)
	sid := h.Sessions.EnsureSID(c)

	orderID, ok := validate.ID(c.FormValue("orderId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	paymentID := strings.TrimSpace(c.FormValue("paymentId"))
	signature := strings.TrimSpace(c.FormValue("signature"))
	if paymentID == "" || signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing payment fields"})
	}

	if err := h.Order.VerifyPayment(sid, u, orderID, paymentID, signature); err != nil {
		switch err {
		case services.ErrBadSignature:
			applog.Security(c, "payment.verify.forged", map[string]any{"order_id": orderID})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment signature"})
		case services.ErrOrderAccess:
			applog.Security(c, "payment.verify.denied", map[string]any{"order_id": orderID})
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		case repos.ErrOrderNotPending:
			applog.Security(c, "payment.verify.conflict", map[string]any{"order_id": orderID})
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order can no longer be paid"})
		}
		applog.Error(c, "payment.verify.fail", err, map[string]any{"order_id": orderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	applog.Audit(c, "payment.verify", map[string]any{"order_id": orderID})
	return c.JSON(fiber.Map{"success": true})
}
