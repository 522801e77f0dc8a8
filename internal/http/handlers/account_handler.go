package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"linenloft/internal/domain"
	applog "linenloft/internal/log"
	"linenloft/internal/repos"
	"linenloft/internal/validate"
)

type AccountHandler struct {
	Users  *repos.UserRepo
	Orders *repos.OrderRepo
}

func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	u := currentUser(c)
	addresses, err := h.Users.Addresses(u.ID)
	if err != nil {
		return err
	}
	return render(c, "account", fiber.Map{"Addresses": addresses})
}

func (h *AccountHandler) OrderHistory(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Orders.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "account.orders.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}

// OrderDetail is ownership-checked; admins may view any order.
func (h *AccountHandler) OrderDetail(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	order, items, err := h.Orders.Get(oid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	if order.UserID != u.ID && !u.IsAdmin() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order", fiber.Map{"Order": order, "Items": items})
}

func addressFromForm(c *fiber.Ctx) (domain.Address, string) {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return domain.Address{}, "name"
	}
	street, ok := validate.Name(c.FormValue("street"))
	if !ok {
		return domain.Address{}, "street"
	}
	city, ok := validate.Name(c.FormValue("city"))
	if !ok {
		return domain.Address{}, "city"
	}
	state, ok := validate.Name(c.FormValue("state"))
	if !ok {
		return domain.Address{}, "state"
	}
	zip, ok := validate.Zip(c.FormValue("zipCode"))
	if !ok {
		return domain.Address{}, "zipCode"
	}
	phone, ok := validate.Phone(c.FormValue("phone"))
	if !ok {
		return domain.Address{}, "phone"
	}
	return domain.Address{
		Name: name, Street: street, City: city, State: state, ZipCode: zip, Phone: phone,
	}, ""
}

func (h *AccountHandler) AddAddress(c *fiber.Ctx) error {
	u := currentUser(c)
	addr, badField := addressFromForm(c)
	if badField != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": badField})
		setFlash(c, "error", "Please check the address form and try again")
		return c.Redirect("/account")
	}
	addr.ID = uuid.NewString()
	addr.UserID = u.ID
	if err := h.Users.InsertAddress(addr); err != nil {
		applog.Error(c, "account.address.add.fail", err, nil)
		setFlash(c, "error", "Could not save address")
		return c.Redirect("/account")
	}
	setFlash(c, "success", "Address saved")
	return c.Redirect("/account")
}

func (h *AccountHandler) UpdateAddress(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing address id")
	}
	addr, badField := addressFromForm(c)
	if badField != "" {
		setFlash(c, "error", "Please check the address form and try again")
		return c.Redirect("/account")
	}
	addr.ID = id
	addr.UserID = u.ID
	if err := h.Users.UpdateAddress(addr); err != nil {
		applog.Error(c, "account.address.update.fail", err, map[string]any{"address": id})
		setFlash(c, "error", "Could not update address")
		return c.Redirect("/account")
	}
	setFlash(c, "success", "Address updated")
	return c.Redirect("/account")
}

func (h *AccountHandler) DeleteAddress(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing address id")
	}
	if err := h.Users.DeleteAddress(u.ID, id); err != nil {
		applog.Error(c, "account.address.delete.fail", err, map[string]any{"address": id})
		setFlash(c, "error", "Could not delete address")
		return c.Redirect("/account")
	}
	setFlash(c, "success", "Address removed")
	return c.Redirect("/account")
}
