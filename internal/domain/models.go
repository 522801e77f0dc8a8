package domain

import "encoding/json"

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Slug      string `db:"slug"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Product mirrors the products table. List-valued attributes (sizes, colors,
// images, tags) are stored as JSON text columns.
type Product struct {
	ID          string  `db:"id"`
	CategoryID  string  `db:"category_id"`
	Name        string  `db:"name"`
	Slug        string  `db:"slug"`
	Description string  `db:"description"`
	ShortDesc   string  `db:"short_description"`
	Price       float64 `db:"price"`
	// DiscountedPrice is the customer-facing sell price.
	DiscountedPrice float64 `db:"discounted_price"`
	Material        string  `db:"material"`
	ThreadCount     int     `db:"thread_count"`
	Dimensions      string  `db:"dimensions"`
	SizesJSON       string  `db:"sizes_json"`
	ColorsJSON      string  `db:"colors_json"`
	ImagesJSON      string  `db:"images_json"`
	TagsJSON        string  `db:"tags_json"`
	InStock         bool    `db:"in_stock"`
	StockQty        int     `db:"stock_qty"`
	Rating          float64 `db:"rating"`
	Featured        bool    `db:"featured"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
}

func decodeList(raw string) []string {
	var out []string
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

// EncodeList is the inverse of the accessors below; used by repos and the
// CSV importer when writing products.
func EncodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func (p Product) Sizes() []string  { return decodeList(p.SizesJSON) }
func (p Product) Colors() []string { return decodeList(p.ColorsJSON) }
func (p Product) Images() []string { return decodeList(p.ImagesJSON) }
func (p Product) Tags() []string   { return decodeList(p.TagsJSON) }

func (p Product) MainImage() string {
	if imgs := p.Images(); len(imgs) > 0 {
		return imgs[0]
	}
	return ""
}

type Review struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	UserID    string `db:"user_id"`
	UserName  string `db:"user_name"`
	Rating    int    `db:"rating"`
	Comment   string `db:"comment"`
	CreatedAt string `db:"created_at"`
}
