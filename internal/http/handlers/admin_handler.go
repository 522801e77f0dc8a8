package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"linenloft/internal/cache"
	"linenloft/internal/domain"
	applog "linenloft/internal/log"
	"linenloft/internal/repos"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

const maxProductImages = 5

type AdminHandler struct {
	Prods    *repos.ProductRepo
	Cats     *repos.CategoryRepo
	Orders   *repos.OrderRepo
	Users    *repos.UserRepo
	Importer *services.ImportService
	Cache    cache.Cache

	UploadsDir string
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	productCount, _ := h.Prods.Count()
	orderCount, _ := h.Orders.Count()
	userCount, _ := h.Users.Count()
	recent, err := h.Orders.ListLatest(5)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{
		"ProductCount": productCount,
		"OrderCount":   orderCount,
		"UserCount":    userCount,
		"RecentOrders": recent,
	})
}

// ---------- Products ----------

func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	products, err := h.Prods.List(repos.Filter{MinPrice: -1, MaxPrice: -1, Limit: 200})
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": products})
}

func (h *AdminHandler) ProductForm(c *fiber.Ctx) error {
	cats, err := h.Cats.List()
	if err != nil {
		return err
	}
	return render(c, "admin_product_form", fiber.Map{"Categories": cats})
}

func (h *AdminHandler) EditProductForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	p, err := h.Prods.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	cats, err := h.Cats.List()
	if err != nil {
		return err
	}
	return render(c, "admin_product_form", fiber.Map{"P": p, "Categories": cats})
}

// productFromForm validates the shared add/edit form. Discounted price may
// not exceed the list price.
func (h *AdminHandler) productFromForm(c *fiber.Ctx) (domain.Product, string) {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return domain.Product{}, "name is required"
	}
	desc := strings.TrimSpace(c.FormValue("description"))
	if desc == "" {
		return domain.Product{}, "description is required"
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return domain.Product{}, "invalid price"
	}
	discounted := price
	if v := c.FormValue("discountedPrice"); v != "" {
		if discounted, ok = validate.Price(v); !ok {
			return domain.Product{}, "invalid discounted price"
		}
	}
	if discounted > price {
		return domain.Product{}, "discounted price cannot exceed price"
	}
	catID, ok := validate.ID(c.FormValue("category"))
	if !ok {
		return domain.Product{}, "category is required"
	}
	if _, err := h.Cats.Get(catID); err != nil {
		return domain.Product{}, "unknown category"
	}

	short := strings.TrimSpace(c.FormValue("shortDescription"))
	if short == "" {
		short = validate.Truncate(desc, 100)
	}
	threadCount, _ := strconv.Atoi(c.FormValue("threadCount"))
	stockQty, _ := strconv.Atoi(c.FormValue("stockQty"))
	if stockQty < 0 {
		stockQty = 0
	}

	return domain.Product{
		CategoryID:      catID,
		Name:            name,
		Slug:            validate.Slugify(name),
		Description:     desc,
		ShortDesc:       short,
		Price:           price,
		DiscountedPrice: discounted,
		Material:        strings.TrimSpace(c.FormValue("material")),
		ThreadCount:     threadCount,
		Dimensions:      strings.TrimSpace(c.FormValue("dimensions")),
		SizesJSON:       domain.EncodeList(validate.CSVList(c.FormValue("sizes"))),
		ColorsJSON:      domain.EncodeList(validate.CSVList(c.FormValue("colors"))),
		TagsJSON:        domain.EncodeList(validate.CSVList(c.FormValue("tags"))),
		InStock:         stockQty > 0,
		StockQty:        stockQty,
		Featured:        c.FormValue("isFeatured") == "on",
	}, ""
}

// saveImages stores up to maxProductImages uploaded files under the public
// uploads dir and returns their web paths.
func (h *AdminHandler) saveImages(c *fiber.Ctx) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil // no multipart body; images optional on edit
	}
	files := form.File["images"]
	if len(files) > maxProductImages {
		files = files[:maxProductImages]
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		name := uuid.NewString() + sanitizeExt(f)
		if err := c.SaveFile(f, filepath.Join(h.UploadsDir, name)); err != nil {
			return nil, err
		}
		paths = append(paths, "/uploads/"+name)
	}
	return paths, nil
}

func sanitizeExt(f *multipart.FileHeader) string {
	switch ext := strings.ToLower(filepath.Ext(f.Filename)); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	p, badReason := h.productFromForm(c)
	if badReason != "" {
		applog.Security(c, "validation.fail", map[string]any{"form": "product", "reason": badReason})
		setFlash(c, "error", badReason)
		return c.Redirect("/admin/products/add")
	}
	images, err := h.saveImages(c)
	if err != nil {
		applog.Error(c, "admin.product.upload.fail", err, nil)
		setFlash(c, "error", "Could not store product images")
		return c.Redirect("/admin/products/add")
	}
	p.ID = uuid.NewString()
	p.ImagesJSON = domain.EncodeList(images)

	if err := h.Prods.Insert(p); err != nil {
		applog.Error(c, "admin.product.create.fail", err, map[string]any{"slug": p.Slug})
		setFlash(c, "error", "Could not add product (duplicate slug?)")
		return c.Redirect("/admin/products/add")
	}
	_ = h.Cache.Delete(c.Context(), featuredCacheKey)
	applog.Audit(c, "admin.product.create", map[string]any{"product": p.ID, "slug": p.Slug})
	setFlash(c, "success", "Product added successfully")
	return c.Redirect("/admin/products")
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing product id")
	}
	existing, err := h.Prods.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	p, badReason := h.productFromForm(c)
	if badReason != "" {
		setFlash(c, "error", badReason)
		return c.Redirect("/admin/products/" + id + "/edit")
	}
	images, err := h.saveImages(c)
	if err != nil {
		applog.Error(c, "admin.product.upload.fail", err, nil)
		setFlash(c, "error", "Could not store product images")
		return c.Redirect("/admin/products/" + id + "/edit")
	}
	p.ID = id
	p.Rating = existing.Rating
	if len(images) > 0 {
		p.ImagesJSON = domain.EncodeList(images)
	} else {
		p.ImagesJSON = existing.ImagesJSON
	}

	if err := h.Prods.Update(p); err != nil {
		applog.Error(c, "admin.product.update.fail", err, map[string]any{"product": id})
		setFlash(c, "error", "Could not update product")
		return c.Redirect("/admin/products/" + id + "/edit")
	}
	_ = h.Cache.Delete(c.Context(), featuredCacheKey)
	applog.Audit(c, "admin.product.update", map[string]any{"product": id})
	setFlash(c, "success", "Product updated")
	return c.Redirect("/admin/products")
}

// BulkUpload ingests a CSV of products. The uploaded file is removed after
// processing regardless of the outcome.
func (h *AdminHandler) BulkUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("csvFile")
	if err != nil {
		setFlash(c, "error", "Please upload a CSV file")
		return c.Redirect("/admin/products")
	}

	tmpPath := filepath.Join(h.UploadsDir, "import-"+uuid.NewString()+".csv")
	if err := c.SaveFile(fh, tmpPath); err != nil {
		applog.Error(c, "admin.import.save.fail", err, nil)
		setFlash(c, "error", "Could not store the uploaded file")
		return c.Redirect("/admin/products")
	}
	defer func() { _ = os.Remove(tmpPath) }()

	f, err := os.Open(tmpPath)
	if err != nil {
		applog.Error(c, "admin.import.open.fail", err, nil)
		setFlash(c, "error", "Could not read the uploaded file")
		return c.Redirect("/admin/products")
	}
	defer f.Close()

	report, err := h.Importer.ImportCSV(f)
	if err != nil {
		applog.Error(c, "admin.import.fail", err, nil)
		setFlash(c, "error", "Error processing CSV file")
		return c.Redirect("/admin/products")
	}
	_ = h.Cache.Delete(c.Context(), featuredCacheKey)

	applog.Audit(c, "admin.import", map[string]any{
		"created": report.Created, "skipped": len(report.Skipped),
	})
	msg := fmt.Sprintf("%d products uploaded", report.Created)
	if n := len(report.Skipped); n > 0 {
		msg += fmt.Sprintf(", %d rows skipped (first: line %d, %s)",
			n, report.Skipped[0].Line, report.Skipped[0].Reason)
	}
	setFlash(c, "success", msg)
	return c.Redirect("/admin/products")
}

// ---------- Categories ----------

func (h *AdminHandler) CategoriesPage(c *fiber.Ctx) error {
	cats, err := h.Cats.List()
	if err != nil {
		return err
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		setFlash(c, "error", "Category name is required")
		return c.Redirect("/admin/categories")
	}
	cat := domain.Category{ID: uuid.NewString(), Name: name, Slug: validate.Slugify(name)}
	if err := h.Cats.Insert(cat); err != nil {
		applog.Error(c, "admin.category.create.fail", err, map[string]any{"name": name})
		setFlash(c, "error", "Could not add category (duplicate name?)")
		return c.Redirect("/admin/categories")
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category": cat.ID})
	setFlash(c, "success", "Category added")
	return c.Redirect("/admin/categories")
}

// ---------- Orders ----------

func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": orders})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("status")
	if !ok || (status != domain.OrderConfirmed && status != domain.OrderCancelled && status != domain.OrderPending) {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or bad status")
	}
	if err := h.Orders.UpdateStatus(id, status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}

// ---------- Users ----------

func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.ListCustomers()
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}
