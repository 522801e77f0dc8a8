package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog and users if the DB is empty (idempotent).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL,
  short_description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discounted_price NUMERIC NOT NULL CHECK (discounted_price >= 0),
  material TEXT NOT NULL DEFAULT '',
  thread_count INTEGER NOT NULL DEFAULT 0,
  dimensions TEXT NOT NULL DEFAULT '',
  sizes_json TEXT NOT NULL DEFAULT '[]',
  colors_json TEXT NOT NULL DEFAULT '[]',
  images_json TEXT NOT NULL DEFAULT '[]',
  tags_json TEXT NOT NULL DEFAULT '[]',
  in_stock INTEGER NOT NULL DEFAULT 1,
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
  rating NUMERIC NOT NULL DEFAULT 0,
  featured INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_price    ON products(discounted_price);
CREATE INDEX IF NOT EXISTS idx_products_rating   ON products(rating DESC);
CREATE INDEX IF NOT EXISTS idx_products_featured ON products(category_id, featured);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Reviews
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);

-- Users, addresses & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('customer','admin')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  street TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  phone TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  expires_at TEXT,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Carts: one line per distinct (product, size, color)
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  qty INTEGER NOT NULL CHECK (qty >= 1),
  created_at TEXT,
  updated_at TEXT,
  UNIQUE (cart_id, product_id, size, color)
);

-- Orders: header carries totals and the shipping-address snapshot
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  receipt TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL REFERENCES users(id),
  subtotal NUMERIC NOT NULL,
  shipping NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  payment_method TEXT NOT NULL CHECK (payment_method IN ('online','cod')),
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','cancelled')),
  payment_status TEXT NOT NULL DEFAULT 'unpaid' CHECK (payment_status IN ('unpaid','paid')),
  payment_id TEXT NOT NULL DEFAULT '',
  gateway_order_id TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT '',
  ship_name TEXT NOT NULL,
  ship_street TEXT NOT NULL,
  ship_city TEXT NOT NULL,
  ship_state TEXT NOT NULL,
  ship_zip TEXT NOT NULL,
  ship_phone TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (order_id, product_id, size, color)
);

-- Wishlists (session-scoped, like carts)
CREATE TABLE IF NOT EXISTS wishlists(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS wishlist_items(
  wishlist_id TEXT NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  created_at TEXT,
  PRIMARY KEY (wishlist_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name,slug) VALUES
	  ('cat-bedsheets','Bedsheets','bedsheets'),
	  ('cat-duvets','Duvet Covers','duvet-covers'),
	  ('cat-pillows','Pillow Covers','pillow-covers'),
	  ('cat-blankets','Blankets','blankets')`)

	tx.MustExec(`INSERT INTO products
	  (id,category_id,name,slug,description,short_description,price,discounted_price,
	   material,thread_count,dimensions,sizes_json,colors_json,images_json,tags_json,
	   in_stock,stock_qty,rating,featured) VALUES
	  ('prod-sateen-400','cat-bedsheets','Sateen Weave Bedsheet Set','sateen-weave-bedsheet-set',
	   'Silky 400 thread count cotton sateen set with two pillow covers.',
	   'Silky 400 TC cotton sateen set.',1499,1199,'Cotton Sateen',400,'90x100 in',
	   '["Queen","King"]','["Ivory","Slate"]','["/uploads/sateen-400.jpg"]','["sateen","cotton","400tc"]',
	   1,40,4.6,1),
	  ('prod-percale-200','cat-bedsheets','Crisp Percale Bedsheet','crisp-percale-bedsheet',
	   'Breathable 200 thread count percale weave, pre-washed for softness.',
	   'Breathable 200 TC percale.',899,749,'Cotton Percale',200,'90x100 in',
	   '["Double","Queen"]','["White","Sage"]','["/uploads/percale-200.jpg"]','["percale","crisp"]',
	   1,65,4.3,1),
	  ('prod-linen-duvet','cat-duvets','Stonewashed Linen Duvet Cover','stonewashed-linen-duvet-cover',
	   'Pure flax linen duvet cover, stonewashed for a lived-in feel.',
	   'Pure flax linen duvet cover.',3299,2799,'Flax Linen',0,'90x94 in',
	   '["Queen","King"]','["Natural","Charcoal"]','["/uploads/linen-duvet.jpg"]','["linen","duvet"]',
	   1,18,4.8,1),
	  ('prod-wool-throw','cat-blankets','Merino Wool Throw','merino-wool-throw',
	   'Lightweight merino throw blanket with fringed edges.',
	   'Lightweight merino throw.',2199,2199,'Merino Wool',0,'50x70 in',
	   '["Standard"]','["Oat","Rust"]','["/uploads/wool-throw.jpg"]','["wool","throw"]',
	   1,12,4.1,0)`)

	return tx.Commit()
}

// seedUsers ensures a demo customer and one admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-demo", "demo@linenloft.test", "Demo Customer", "customer", "Passw0rd!"),
		mk("u-admin", "admin@linenloft.test", "Admin", "admin", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
