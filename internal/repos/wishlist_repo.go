package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) ensure(sessionID string) (string, error) {
	var id string
	if err := r.db.Get(&id, `SELECT id FROM wishlists WHERE session_id = ?`, sessionID); err == nil {
		return id, nil
	}
	_, err := r.db.Exec(`INSERT INTO wishlists(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *WishlistRepo) Save(sessionID, productID string) error {
	wid, err := r.ensure(sessionID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
	  INSERT INTO wishlist_items(wishlist_id, product_id, created_at)
	  VALUES(?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(wishlist_id, product_id) DO NOTHING
	`, wid, productID)
	return err
}

func (r *WishlistRepo) Remove(sessionID, productID string) error {
	wid, err := r.ensure(sessionID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`DELETE FROM wishlist_items WHERE wishlist_id = ? AND product_id = ?`, wid, productID)
	return err
}

func (r *WishlistRepo) List(sessionID string) ([]domain.Product, error) {
	wid, err := r.ensure(sessionID)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	err = r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE id IN (SELECT product_id FROM wishlist_items WHERE wishlist_id = ?)
	  ORDER BY name
	`, wid)
	return out, err
}
