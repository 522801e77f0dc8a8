package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
	"linenloft/internal/payment"
	"linenloft/internal/repos"
	"linenloft/internal/services"
)

type fakeGateway struct {
	id     string
	called bool
}

func (g *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	g.called = true
	return g.id, nil
}

type recordingMailer struct {
	confirmations int
}

func (m *recordingMailer) OrderConfirmation(string, domain.Order, []domain.OrderItem) error {
	m.confirmations++
	return nil
}
func (m *recordingMailer) PasswordReset(string, string) error { return nil }

const testSecret = "test-razorpay-secret"

func orderFixture(t *testing.T) (*sqlx.DB, *services.OrderService, *services.CartService, *fakeGateway, *recordingMailer, *domain.User) {
	t.Helper()
	db := memdb(t)

	prods := repos.NewProductRepo(db)
	users := repos.NewUserRepo(db)
	orders := repos.NewOrderRepo(db)
	cart := services.NewCartService(repos.NewCartRepo(db), prods, 999, 50)

	gw := &fakeGateway{id: "order_rzptest1"}
	mailer := &recordingMailer{}
	svc := &services.OrderService{
		Cart:          cart,
		Orders:        orders,
		Users:         users,
		Prods:         prods,
		Gateway:       gw,
		Mailer:        mailer,
		PaymentSecret: testSecret,
	}

	// seeded demo customer plus one delivery address
	u, err := users.Get("u-demo")
	if err != nil {
		t.Fatal(err)
	}
	if err := users.InsertAddress(domain.Address{
		ID: "addr-1", UserID: u.ID, Name: "Demo Customer",
		Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
		ZipCode: "560001", Phone: "+91 9876543210",
	}); err != nil {
		t.Fatal(err)
	}
	return db, svc, cart, gw, mailer, u
}

func TestPlaceCODConfirmsAndClearsCart(t *testing.T) {
	_, svc, cart, gw, mailer, u := orderFixture(t)
	sid := "sid-order-cod"

	// sateen 1199 x2 = 2398, above the free-shipping threshold
	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 2); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Place(sid, u, "addr-1", "cod", "leave at door")
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderID == "" || res.Receipt == "" {
		t.Fatalf("missing order id or receipt: %+v", res)
	}
	if gw.called {
		t.Fatal("cod order must not hit the payment gateway")
	}
	if mailer.confirmations != 1 {
		t.Fatalf("want one confirmation email, got %d", mailer.confirmations)
	}

	order, items, err := svc.Orders.Get(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.OrderConfirmed || order.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("cod order should be confirmed but unpaid: %+v", order)
	}
	if order.Subtotal != 2398 || order.Shipping != 0 || order.Total != 2398 {
		t.Fatalf("bad totals: %+v", order)
	}
	if len(items) != 1 || items[0].Qty != 2 || items[0].Price != 1199 {
		t.Fatalf("bad snapshot items: %+v", items)
	}
	if order.ShipCity != "Bengaluru" || order.ShipZip != "560001" {
		t.Fatalf("address not snapshotted: %+v", order)
	}

	view, _ := cart.View(sid)
	if len(view.Lines) != 0 {
		t.Fatal("cart should be cleared after cod order")
	}
}

func TestPlaceDecrementsStockAndRejectsOversell(t *testing.T) {
	db, svc, cart, _, _, u := orderFixture(t)
	sid := "sid-order-stock"

	// wool throw seeds with 12 in stock
	if err := cart.Add(sid, "prod-wool-throw", "Standard", "Oat", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Place(sid, u, "addr-1", "cod", ""); err != nil {
		t.Fatal(err)
	}
	var qty int
	if err := db.Get(&qty, `SELECT stock_qty FROM products WHERE id='prod-wool-throw'`); err != nil {
		t.Fatal(err)
	}
	if qty != 7 {
		t.Fatalf("want stock 7 after selling 5 of 12, got %d", qty)
	}

	// a second order for more than what is left must be rejected
	if err := cart.Add(sid, "prod-wool-throw", "Standard", "Oat", 8); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Place(sid, u, "addr-1", "cod", "")
	if _, ok := err.(services.ErrInsufficientStock); !ok {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
}

func TestRejectedOrderRestoresReservedStock(t *testing.T) {
	db, svc, cart, _, _, u := orderFixture(t)
	sid := "sid-order-leak"

	// sateen (stock 40) reserves fine, then the oversized wool throw line
	// (stock 12) rejects the order; the sateen units must come back
	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(sid, "prod-wool-throw", "Standard", "Oat", 50); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Place(sid, u, "addr-1", "cod", "")
	if _, ok := err.(services.ErrInsufficientStock); !ok {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	var sateen, throw int
	if err := db.Get(&sateen, `SELECT stock_qty FROM products WHERE id='prod-sateen-400'`); err != nil {
		t.Fatal(err)
	}
	if err := db.Get(&throw, `SELECT stock_qty FROM products WHERE id='prod-wool-throw'`); err != nil {
		t.Fatal(err)
	}
	if sateen != 40 || throw != 12 {
		t.Fatalf("rejected order must not touch inventory: sateen %d (want 40), throw %d (want 12)", sateen, throw)
	}

	if n, err := svc.Orders.Count(); err != nil || n != 0 {
		t.Fatalf("no order row should exist after rejection: n=%d err=%v", n, err)
	}

	// retrying does not erode stock either
	if _, err := svc.Place(sid, u, "addr-1", "cod", ""); err == nil {
		t.Fatal("retry should still be rejected")
	}
	if err := db.Get(&sateen, `SELECT stock_qty FROM products WHERE id='prod-sateen-400'`); err != nil {
		t.Fatal(err)
	}
	if sateen != 40 {
		t.Fatalf("retry leaked stock: sateen %d, want 40", sateen)
	}
}

func TestOrderSnapshotSurvivesPriceChange(t *testing.T) {
	db, svc, cart, _, _, u := orderFixture(t)
	sid := "sid-order-snapshot"

	if err := cart.Add(sid, "prod-percale-200", "Queen", "White", 2); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Place(sid, u, "addr-1", "cod", "")
	if err != nil {
		t.Fatal(err)
	}

	// reprice the product after the sale
	if _, err := db.Exec(`UPDATE products SET discounted_price = 999 WHERE id='prod-percale-200'`); err != nil {
		t.Fatal(err)
	}

	_, items, err := svc.Orders.Get(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Price != 749 {
		t.Fatalf("order item price must stay at the price paid (749), got %v", items[0].Price)
	}
}

func TestPlaceValidatesAddressAndCart(t *testing.T) {
	_, svc, cart, _, _, u := orderFixture(t)

	// empty cart
	if _, err := svc.Place("sid-order-empty", u, "addr-1", "cod", ""); err != services.ErrEmptyCart {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}

	// somebody else's (or missing) address
	sid := "sid-order-addr"
	if err := cart.Add(sid, "prod-percale-200", "Queen", "White", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Place(sid, u, "addr-unknown", "cod", ""); err != services.ErrBadAddress {
		t.Fatalf("want ErrBadAddress, got %v", err)
	}
}

func TestVerifyPaymentAcceptsValidSignature(t *testing.T) {
	_, svc, cart, gw, mailer, u := orderFixture(t)
	sid := "sid-order-online"

	if err := cart.Add(sid, "prod-linen-duvet", "Queen", "Natural", 1); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Place(sid, u, "addr-1", "online", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.GatewayOrderID != gw.id {
		t.Fatalf("want gateway order id %q, got %q", gw.id, res.GatewayOrderID)
	}
	// pending until the payment callback lands; cart is kept for retries
	order, _, _ := svc.Orders.Get(res.OrderID)
	if order.Status != domain.OrderPending || order.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("online order should stay pending before verification: %+v", order)
	}
	if view, _ := cart.View(sid); len(view.Lines) == 0 {
		t.Fatal("cart should survive until payment is verified")
	}

	sig := payment.Sign(testSecret, gw.id, "pay_abc123")
	if err := svc.VerifyPayment(sid, u, res.OrderID, "pay_abc123", sig); err != nil {
		t.Fatal(err)
	}

	order, _, _ = svc.Orders.Get(res.OrderID)
	if order.Status != domain.OrderConfirmed || order.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("verified order should be confirmed and paid: %+v", order)
	}
	if order.PaymentID != "pay_abc123" {
		t.Fatalf("payment id not recorded: %+v", order)
	}
	if mailer.confirmations != 1 {
		t.Fatalf("want one confirmation email, got %d", mailer.confirmations)
	}
	if view, _ := cart.View(sid); len(view.Lines) != 0 {
		t.Fatal("cart should be cleared after verified payment")
	}
}

func TestVerifyPaymentRejectsForgedSignature(t *testing.T) {
	_, svc, cart, _, _, u := orderFixture(t)
	sid := "sid-order-forged"

	if err := cart.Add(sid, "prod-linen-duvet", "King", "Charcoal", 1); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Place(sid, u, "addr-1", "online", "")
	if err != nil {
		t.Fatal(err)
	}

	err = svc.VerifyPayment(sid, u, res.OrderID, "pay_abc123", "deadbeef")
	if err != services.ErrBadSignature {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}

	// order untouched
	order, _, _ := svc.Orders.Get(res.OrderID)
	if order.Status != domain.OrderPending || order.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("forged callback must not move the order: %+v", order)
	}
}

func TestVerifyPaymentChecksOwnership(t *testing.T) {
	_, svc, cart, gw, _, u := orderFixture(t)
	sid := "sid-order-owner"

	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 1); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Place(sid, u, "addr-1", "online", "")
	if err != nil {
		t.Fatal(err)
	}

	intruder := &domain.User{ID: "u-someone-else"}
	sig := payment.Sign(testSecret, gw.id, "pay_abc123")
	if err := svc.VerifyPayment(sid, intruder, res.OrderID, "pay_abc123", sig); err != services.ErrOrderAccess {
		t.Fatalf("want ErrOrderAccess for foreign order, got %v", err)
	}
}
