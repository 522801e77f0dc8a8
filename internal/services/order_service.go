package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"

	"linenloft/internal/domain"
	applog "linenloft/internal/log"
	"linenloft/internal/mail"
	"linenloft/internal/metrics"
	"linenloft/internal/payment"
	"linenloft/internal/repos"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrBadAddress   = errors.New("invalid address")
	ErrBadSignature = errors.New("invalid payment signature")
	ErrOrderAccess  = errors.New("order not found")
)

type ErrInsufficientStock struct {
	ProductName string
	Want        int
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for %q (wanted %d)", e.ProductName, e.Want)
}

// newReceipt generates short human-facing order numbers (shown in email and
// on the order page; the uuid stays the primary key).
var newReceipt = func() func() string {
	gen, err := nanoid.CustomASCII("0123456789ABCDEFGHJKMNPQRSTVWXYZ", 10)
	if err != nil {
		panic(err)
	}
	return func() string { return "LL-" + gen() }
}()

type OrderService struct {
	Cart    *CartService
	Orders  *repos.OrderRepo
	Users   *repos.UserRepo
	Prods   *repos.ProductRepo
	Gateway payment.Gateway
	Mailer  mail.Mailer

	PaymentSecret string
}

// PlaceResult tells the checkout page how to continue: COD orders are done,
// online orders carry the gateway order id for client-side capture.
type PlaceResult struct {
	OrderID        string
	Receipt        string
	PaymentMethod  string
	GatewayOrderID string
}

// Place snapshots the cart into a pending order. The order row is persisted
// before any gateway call, so a gateway failure leaves a recoverable pending
// order instead of losing the purchase intent.
func (s *OrderService) Place(sid string, user *domain.User, addressID, method, note string) (PlaceResult, error) {
	if method != domain.PayOnline && method != domain.PayCOD {
		return PlaceResult{}, fmt.Errorf("unknown payment method %q", method)
	}
	addr, err := s.Users.Address(user.ID, addressID)
	if err != nil {
		return PlaceResult{}, ErrBadAddress
	}

	view, err := s.Cart.View(sid)
	if err != nil {
		return PlaceResult{}, err
	}
	if len(view.Lines) == 0 {
		return PlaceResult{}, ErrEmptyCart
	}

	// Reserve stock before writing the order; reject rather than oversell.
	// Reservations already taken are returned on any failure, so a rejected
	// order leaves inventory untouched.
	release := func(n int) {
		for _, line := range view.Lines[:n] {
			if rerr := s.Prods.RestoreStock(line.Product.ID, line.Qty); rerr != nil {
				applog.Error(nil, "order.stock.release", rerr, map[string]any{"product": line.Product.ID})
			}
		}
	}
	for i, line := range view.Lines {
		ok, err := s.Prods.DecrementStock(line.Product.ID, line.Qty)
		if err != nil {
			release(i)
			return PlaceResult{}, err
		}
		if !ok {
			release(i)
			return PlaceResult{}, ErrInsufficientStock{ProductName: line.Product.Name, Want: line.Qty}
		}
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		Receipt:       newReceipt(),
		UserID:        user.ID,
		Subtotal:      view.Totals.Subtotal,
		Shipping:      view.Totals.Shipping,
		Total:         view.Totals.Total,
		PaymentMethod: method,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentUnpaid,
		Note:          note,
		ShipName:      addr.Name,
		ShipStreet:    addr.Street,
		ShipCity:      addr.City,
		ShipState:     addr.State,
		ShipZip:       addr.ZipCode,
		ShipPhone:     addr.Phone,
	}
	items := make([]domain.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, domain.OrderItem{
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Qty:       line.Qty,
			Price:     line.UnitPrice(), // snapshot of the discounted price
			Size:      line.Size,
			Color:     line.Color,
		})
	}
	if err := s.Orders.Create(order, items); err != nil {
		release(len(view.Lines))
		return PlaceResult{}, err
	}

	res := PlaceResult{OrderID: order.ID, Receipt: order.Receipt, PaymentMethod: method}

	switch method {
	case domain.PayOnline:
		gwID, err := s.Gateway.CreateOrder(Paise(order.Total), "INR", order.ID)
		if err != nil {
			// keep the pending order; the customer can retry payment
			return PlaceResult{}, err
		}
		if err := s.Orders.SetGatewayOrder(order.ID, gwID); err != nil {
			return PlaceResult{}, err
		}
		res.GatewayOrderID = gwID

	case domain.PayCOD:
		if err := s.Orders.Confirm(order.ID); err != nil {
			return PlaceResult{}, err
		}
		s.sendConfirmation(user.Email, order.ID)
		_ = s.Cart.Clear(sid)
	}

	metrics.OrdersPlaced.WithLabelValues(method).Inc()
	return res, nil
}

// VerifyPayment handles the client-side payment callback. The gateway signs
// its own order id, so the supplied signature must equal
// HMAC-SHA256(secret, gatewayOrderID|paymentID); anything else is treated as
// a forged callback and the order is left untouched.
func (s *OrderService) VerifyPayment(sid string, user *domain.User, orderID, paymentID, signature string) error {
	order, _, err := s.Orders.Get(orderID)
	if err != nil || order.UserID != user.ID {
		return ErrOrderAccess
	}
	if !payment.VerifySignature(s.PaymentSecret, order.GatewayOrderID, paymentID, signature) {
		metrics.PaymentVerifyFailures.Inc()
		return ErrBadSignature
	}
	if err := s.Orders.MarkPaid(orderID, paymentID); err != nil {
		return err
	}

	s.sendConfirmation(user.Email, orderID)
	_ = s.Cart.Clear(sid)
	return nil
}

// sendConfirmation emails best-effort: failures are logged and counted,
// never bubbled up to the request that confirmed the order.
func (s *OrderService) sendConfirmation(email, orderID string) {
	order, items, err := s.Orders.Get(orderID)
	if err != nil {
		applog.Error(nil, "order.email.load", err, map[string]any{"order_id": orderID})
		return
	}
	if err := s.Mailer.OrderConfirmation(email, order, items); err != nil {
		metrics.EmailFailures.Inc()
		applog.Error(nil, "order.email.send", err, map[string]any{"order_id": orderID})
	}
}
