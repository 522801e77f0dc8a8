package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"linenloft/internal/cache"
	"linenloft/internal/domain"
	applog "linenloft/internal/log"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Cache   cache.Cache
}

// Home renders categories plus the featured strip.
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	featured, err := h.Catalog.Featured(8)
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Featured": featured})
}

func parsePrice(raw string) float64 {
	if raw == "" {
		return -1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return -1
	}
	return f
}

// List is the filtered catalog page. All filters AND together; color/size
// accept comma-separated sets.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	filters := services.ListFilters{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		MinPrice:     parsePrice(c.Query("minPrice")),
		MaxPrice:     parsePrice(c.Query("maxPrice")),
		Colors:       validate.CSVList(c.Query("color")),
		Sizes:        validate.CSVList(c.Query("size")),
		Sort:         c.Query("sort"),
		Page:         c.QueryInt("page", 1),
	}
	if raw := c.Query("search"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "search"})
			return render(c, "products", fiber.Map{
				"Products": []domain.Product{}, "Err": "Enter a valid keyword (letters/numbers only)",
			})
		}
		filters.Search = q
	}
	if filters.CategorySlug != "" {
		if _, ok := validate.Slug(filters.CategorySlug); !ok {
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid category"})
		}
	}

	products, err := h.Catalog.ListProducts(filters)
	if err != nil {
		return err
	}
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	return render(c, "products", fiber.Map{
		"Products":   products,
		"Categories": cats,
		"Filters":    filters,
		"Count":      len(products),
	})
}

// Detail shows one product with its reviews and up to four related items.
func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetBySlug(slug)
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
		}
		return err
	}
	reviews, err := h.Catalog.Reviews(p.ID)
	if err != nil {
		return err
	}
	related, err := h.Catalog.Related(p, 4)
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{"P": p, "Reviews": reviews, "Related": related})
}

// AddReview appends a review for the logged-in user and refreshes the
// product's average rating.
func (h *CatalogHandler) AddReview(c *fiber.Ctx) error {
	u := currentUser(c)
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	p, err := h.Catalog.GetBySlug(slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	rating, ok := validate.Rating(c.FormValue("rating"))
	if !ok {
		setFlash(c, "error", "Rating must be between 1 and 5")
		return c.Redirect("/products/" + p.Slug)
	}
	comment := validate.Truncate(strings.TrimSpace(c.FormValue("comment")), 500)
	if err := h.Catalog.AddReview(p.ID, u.ID, rating, comment); err != nil {
		applog.Error(c, "review.add.fail", err, map[string]any{"product": p.ID})
		setFlash(c, "error", "Could not save your review")
		return c.Redirect("/products/" + p.Slug)
	}
	applog.Audit(c, "review.add", map[string]any{"product": p.ID, "rating": rating})
	setFlash(c, "success", "Thanks for your review!")
	return c.Redirect("/products/" + p.Slug)
}

// Suggest is the typeahead JSON API.
func (h *CatalogHandler) Suggest(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
	}
	sugg, err := h.Catalog.Suggest(q, 5)
	if err != nil {
		applog.Error(c, "suggest.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	return c.JSON(sugg)
}

const featuredCacheKey = "featured"

// Featured serves the featured-products JSON API through the cache-aside
// layer; admin product writes invalidate the key.
func (h *CatalogHandler) Featured(c *fiber.Ctx) error {
	var products []domain.Product
	if hit, err := h.Cache.Get(c.Context(), featuredCacheKey, &products); err == nil && hit {
		return c.JSON(featuredPayload(products))
	}

	products, err := h.Catalog.Featured(8)
	if err != nil {
		applog.Error(c, "featured.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	if err := h.Cache.Set(c.Context(), featuredCacheKey, products); err != nil {
		applog.Error(c, "featured.cache", err, nil)
	}
	return c.JSON(featuredPayload(products))
}

func featuredPayload(products []domain.Product) []fiber.Map {
	out := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		out = append(out, fiber.Map{
			"name":             p.Name,
			"slug":             p.Slug,
			"price":            p.Price,
			"discountedPrice":  p.DiscountedPrice,
			"image":            p.MainImage(),
			"shortDescription": p.ShortDesc,
			"rating":           p.Rating,
		})
	}
	return out
}
