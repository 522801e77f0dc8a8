package repos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CartRepo stores the session cart. One row per distinct
// (product, size, color); adding the same combination increments qty.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type CartItem struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	Size      string `db:"size"`
	Color     string `db:"color"`
	Qty       int    `db:"qty"`
}

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *CartRepo) UpsertItem(cartID, productID, size, color string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(id,cart_id,product_id,size,color,qty,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id,size,color) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), cartID, productID, size, color, qty)
	return err
}

func (r *CartRepo) Items(cartID string) ([]CartItem, error) {
	var out []CartItem
	err := r.db.Select(&out, `
	  SELECT id, product_id, size, color, qty
	  FROM cart_items WHERE cart_id = ?
	  ORDER BY created_at
	`, cartID)
	return out, err
}

// SetQty updates a single line, scoped to the cart so one session cannot
// touch another session's items.
func (r *CartRepo) SetQty(cartID, itemID string, qty int) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND cart_id = ?
	`, qty, itemID, cartID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CartRepo) Remove(cartID, itemID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
	return err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
