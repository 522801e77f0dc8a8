package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
)

// ErrOrderNotPending is returned when a payment lands on an order that has
// already been confirmed or cancelled.
var ErrOrderNotPending = errors.New("order is not pending")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
  id, receipt, user_id, subtotal, shipping, total, payment_method, status,
  payment_status, payment_id, gateway_order_id, note,
  ship_name, ship_street, ship_city, ship_state, ship_zip, ship_phone,
  created_at, COALESCE(updated_at,'') AS updated_at`

// Create persists the order header and every line item in one transaction,
// so a pending order is never half-written.
func (r *OrderRepo) Create(o domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExec(`
	  INSERT INTO orders
	    (id, receipt, user_id, subtotal, shipping, total, payment_method, status,
	     payment_status, payment_id, gateway_order_id, note,
	     ship_name, ship_street, ship_city, ship_state, ship_zip, ship_phone, created_at)
	  VALUES
	    (:id, :receipt, :user_id, :subtotal, :shipping, :total, :payment_method, :status,
	     :payment_status, :payment_id, :gateway_order_id, :note,
	     :ship_name, :ship_street, :ship_city, :ship_state, :ship_zip, :ship_phone, CURRENT_TIMESTAMP)
	`, o); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.NamedExec(`
		  INSERT INTO order_items(order_id, product_id, name, qty, price, size, color)
		  VALUES(:order_id, :product_id, :name, :qty, :price, :size, :color)
		`, it); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	var items []domain.OrderItem
	if err := r.db.Select(&items, `
	  SELECT order_id, product_id, name, qty, price, size, color
	  FROM order_items WHERE order_id = ? ORDER BY name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `SELECT `+orderCols+` FROM orders
	  WHERE user_id = ? ORDER BY datetime(created_at) DESC`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `SELECT `+orderCols+` FROM orders
	  ORDER BY datetime(created_at) DESC LIMIT ?`, limit)
	return out, err
}

// SetGatewayOrder records the gateway-side handle created for online payment.
func (r *OrderRepo) SetGatewayOrder(orderID, gatewayOrderID string) error {
	_, err := r.db.Exec(`
	  UPDATE orders SET gateway_order_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, gatewayOrderID, orderID)
	return err
}

// MarkPaid flips a pending order to confirmed/paid with its payment id.
// Orders in any other state (already confirmed, or cancelled by an admin
// while the customer was paying) refuse the transition.
func (r *OrderRepo) MarkPaid(orderID, paymentID string) error {
	res, err := r.db.Exec(`
	  UPDATE orders SET status = ?, payment_status = ?, payment_id = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND status = ?
	`, domain.OrderConfirmed, domain.PaymentPaid, paymentID, orderID, domain.OrderPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotPending
	}
	return nil
}

func (r *OrderRepo) Confirm(orderID string) error {
	_, err := r.db.Exec(`
	  UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND status = ?
	`, domain.OrderConfirmed, orderID, domain.OrderPending)
	return err
}

// UpdateStatus moves an order between admin-visible states. Cancelling
// returns the reserved units to stock in the same transaction; a cancelled
// order is terminal and cannot be moved again (which would double-restore).
func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND status <> ?
	`, status, orderID, domain.OrderCancelled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 && status == domain.OrderCancelled {
		if _, err := tx.Exec(`
		  UPDATE products
		  SET stock_qty = stock_qty + (
		        SELECT SUM(qty) FROM order_items
		        WHERE order_id = ? AND product_id = products.id),
		      in_stock = 1, updated_at = CURRENT_TIMESTAMP
		  WHERE id IN (SELECT product_id FROM order_items WHERE order_id = ?)
		`, orderID, orderID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders`)
	return n, err
}
