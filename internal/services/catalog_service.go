package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

var ErrNotFound = errors.New("not found")

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

// ListFilters carries the raw query-string filters; the category is still
// a slug here and gets resolved before the repo query runs.
type ListFilters struct {
	CategorySlug string
	MinPrice     float64 // <0 unset
	MaxPrice     float64 // <0 unset
	Colors       []string
	Sizes        []string
	Search       string
	Sort         string
	Page         int
	PageSize     int
}

func (s *CatalogService) ListProducts(f ListFilters) ([]domain.Product, error) {
	filter := repos.Filter{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Colors:   f.Colors,
		Sizes:    f.Sizes,
		Search:   f.Search,
		Sort:     f.Sort,
	}
	if f.CategorySlug != "" {
		cat, err := s.Cats.BySlug(f.CategorySlug)
		if err != nil {
			if err == sql.ErrNoRows {
				// unknown category slug filters everything out
				return []domain.Product{}, nil
			}
			return nil, err
		}
		filter.CategoryID = cat.ID
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 24
	}
	filter.Limit = f.PageSize
	filter.Offset = (f.Page - 1) * f.PageSize
	return s.Prods.List(filter)
}

func (s *CatalogService) GetBySlug(slug string) (domain.Product, error) {
	p, err := s.Prods.GetBySlug(slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Related(p domain.Product, limit int) ([]domain.Product, error) {
	return s.Prods.Related(p.CategoryID, p.ID, limit)
}

func (s *CatalogService) Featured(limit int) ([]domain.Product, error) {
	return s.Prods.Featured(limit)
}

func (s *CatalogService) Suggest(q string, limit int) ([]repos.Suggestion, error) {
	return s.Prods.Suggest(q, limit)
}

func (s *CatalogService) Reviews(productID string) ([]domain.Review, error) {
	return s.Prods.Reviews(productID)
}

// AddReview appends a review and refreshes the product's average rating.
func (s *CatalogService) AddReview(productID, userID string, rating int, comment string) error {
	return s.Prods.InsertReview(domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	})
}
