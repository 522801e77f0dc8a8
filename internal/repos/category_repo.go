package repos

import (
	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, slug, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `SELECT `+categoryCols+` FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) BySlug(slug string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE slug = ?`, slug)
	return c, err
}

// ByName is used by the CSV importer, which references categories by name.
func (r *CategoryRepo) ByName(name string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE LOWER(name) = LOWER(?)`, name)
	return c, err
}

func (r *CategoryRepo) Insert(c domain.Category) error {
	_, err := r.db.Exec(`INSERT INTO categories(id, name, slug) VALUES(?,?,?)`,
		c.ID, c.Name, c.Slug)
	return err
}
