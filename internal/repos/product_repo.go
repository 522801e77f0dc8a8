package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, category_id, name, slug, description, short_description, price, discounted_price,
  material, thread_count, dimensions, sizes_json, colors_json, images_json, tags_json,
  in_stock, stock_qty, rating, featured, created_at, COALESCE(updated_at,'') AS updated_at`

// Sort modes accepted by Filter.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortPopular   = "popular"
)

// Filter is the catalog query: every populated field narrows the result
// (AND across filters; IN-set semantics within the color/size lists).
type Filter struct {
	CategoryID string
	MinPrice   float64 // <0 means unset
	MaxPrice   float64 // <0 means unset
	Colors     []string
	Sizes      []string
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

func (r *ProductRepo) List(f Filter) ([]domain.Product, error) {
	where := []string{"1=1"}
	args := []any{}

	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.MinPrice >= 0 {
		where = append(where, "discounted_price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice >= 0 {
		where = append(where, "discounted_price <= ?")
		args = append(args, f.MaxPrice)
	}
	if len(f.Colors) > 0 {
		cond, a := jsonListAny("colors_json", f.Colors)
		where = append(where, cond)
		args = append(args, a...)
	}
	if len(f.Sizes) > 0 {
		cond, a := jsonListAny("sizes_json", f.Sizes)
		where = append(where, cond)
		args = append(args, a...)
	}

	order := "created_at DESC"
	switch f.Sort {
	case SortPriceLow:
		order = "discounted_price ASC"
	case SortPriceHigh:
		order = "discounted_price DESC"
	case SortPopular:
		order = "rating DESC"
	}

	if f.Search != "" {
		q := "%" + strings.ToLower(f.Search) + "%"
		score := `(CASE WHEN LOWER(name) LIKE ? THEN 3 ELSE 0 END
		  + CASE WHEN LOWER(tags_json) LIKE ? THEN 2 ELSE 0 END
		  + CASE WHEN LOWER(description) LIKE ? THEN 1 ELSE 0 END)`
		where = append(where, score+" > 0")
		args = append(args, q, q, q)
		if f.Sort == "" || f.Sort == SortNewest {
			// relevance first, recency as tiebreak
			order = score + " DESC, created_at DESC"
			args = append(args, q, q, q)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 48
	}

	sql := `SELECT ` + productCols + ` FROM products
	  WHERE ` + strings.Join(where, " AND ") + `
	  ORDER BY ` + order + `
	  LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	var out []domain.Product
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// jsonListAny matches products whose JSON list column contains any of vals.
func jsonListAny(col string, vals []string) (string, []any) {
	ph := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return `EXISTS (SELECT 1 FROM json_each(products.` + col + `) WHERE json_each.value IN (` + ph + `))`, args
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) GetBySlug(slug string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE slug = ?`, slug)
	return p, err
}

func (r *ProductRepo) Featured(limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products
	  WHERE featured = 1 ORDER BY created_at DESC LIMIT ?`, limit)
	return out, err
}

func (r *ProductRepo) Related(categoryID, excludeID string, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products
	  WHERE category_id = ? AND id != ? ORDER BY rating DESC LIMIT ?`, categoryID, excludeID, limit)
	return out, err
}

// Suggestion rows back the typeahead JSON API.
type Suggestion struct {
	Name  string `db:"name" json:"name"`
	Slug  string `db:"slug" json:"slug"`
	Image string `db:"image" json:"image"`
}

func (r *ProductRepo) Suggest(q string, limit int) ([]Suggestion, error) {
	like := "%" + strings.ToLower(q) + "%"
	var out []Suggestion
	err := r.db.Select(&out, `
	  SELECT name, slug, COALESCE(json_extract(images_json,'$[0]'),'') AS image
	  FROM products
	  WHERE LOWER(name) LIKE ? OR LOWER(tags_json) LIKE ?
	  ORDER BY (CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END), rating DESC
	  LIMIT ?`, like, like, like, limit)
	return out, err
}

func (r *ProductRepo) Insert(p domain.Product) error {
	_, err := r.db.NamedExec(`
	  INSERT INTO products
	    (id, category_id, name, slug, description, short_description, price, discounted_price,
	     material, thread_count, dimensions, sizes_json, colors_json, images_json, tags_json,
	     in_stock, stock_qty, rating, featured, created_at)
	  VALUES
	    (:id, :category_id, :name, :slug, :description, :short_description, :price, :discounted_price,
	     :material, :thread_count, :dimensions, :sizes_json, :colors_json, :images_json, :tags_json,
	     :in_stock, :stock_qty, :rating, :featured, CURRENT_TIMESTAMP)
	`, p)
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	_, err := r.db.NamedExec(`
	  UPDATE products SET
	    category_id=:category_id, name=:name, slug=:slug, description=:description,
	    short_description=:short_description, price=:price, discounted_price=:discounted_price,
	    material=:material, thread_count=:thread_count, dimensions=:dimensions,
	    sizes_json=:sizes_json, colors_json=:colors_json, images_json=:images_json,
	    tags_json=:tags_json, in_stock=:in_stock, stock_qty=:stock_qty, featured=:featured,
	    updated_at=CURRENT_TIMESTAMP
	  WHERE id=:id
	`, p)
	return err
}

// DecrementStock reserves qty units; fails the WHERE (0 rows) when stock is
// insufficient so the caller can reject the order.
func (r *ProductRepo) DecrementStock(productID string, qty int) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET stock_qty = stock_qty - ?, in_stock = (stock_qty - ? > 0), updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND stock_qty >= ?
	`, qty, qty, productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RestoreStock returns qty units to the shelf, used when a reservation is
// unwound after a rejected order.
func (r *ProductRepo) RestoreStock(productID string, qty int) error {
	_, err := r.db.Exec(`
	  UPDATE products
	  SET stock_qty = stock_qty + ?, in_stock = 1, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, qty, productID)
	return err
}

func (r *ProductRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}

// ---------- Reviews ----------

func (r *ProductRepo) InsertReview(rv domain.Review) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO reviews(id, product_id, user_id, rating, comment, created_at)
	  VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment); err != nil {
		return err
	}
	// keep the denormalized average in step with the review list
	if _, err := tx.Exec(`
	  UPDATE products
	  SET rating = (SELECT ROUND(AVG(rating),2) FROM reviews WHERE product_id = ?)
	  WHERE id = ?
	`, rv.ProductID, rv.ProductID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ProductRepo) Reviews(productID string) ([]domain.Review, error) {
	var out []domain.Review
	err := r.db.Select(&out, `
	  SELECT rv.id, rv.product_id, rv.user_id, COALESCE(u.name,'') AS user_name,
	         rv.rating, rv.comment, rv.created_at
	  FROM reviews rv LEFT JOIN users u ON u.id = rv.user_id
	  WHERE rv.product_id = ?
	  ORDER BY rv.created_at DESC
	`, productID)
	return out, err
}
