package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linenloft/internal/config"
	"linenloft/internal/http/handlers"
	applog "linenloft/internal/log"
	"linenloft/internal/metrics"
	"linenloft/internal/repos"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	applog.Init(cfg.LogFile)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		log.Fatal(err)
	}

	deps, err := handlers.NewDeps(cfg, db)
	if err != nil {
		log.Fatal(err)
	}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(cfg.Env != "production")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard; bulk CSV and product image uploads need room.
	app.Server().MaxRequestBodySize = 10 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(metrics.Middleware())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := deps.AuthSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/uploads/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Next: func(c *fiber.Ctx) bool {
			// The gateway callback posts from the payment widget script.
			return c.Path() == "/checkout/verify-payment"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	uploadsDir := cfg.UploadsDir
	if !filepath.IsAbs(uploadsDir) {
		if abs, err := filepath.Abs(uploadsDir); err == nil {
			uploadsDir = abs
		}
	}
	app.Static("/static", "./web/static")
	// Guarded uploads to avoid traversal
	app.Get("/uploads/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(uploadsDir, clean), true)
	})

	// ---------- Routes ----------
	requireUser := handlers.RequireUser(deps.AuthSvc)

	app.Get("/", deps.Catalog.Home)
	app.Get("/products", deps.Catalog.List)

	// JSON APIs (registered before the :slug route so /products/api/* never
	// resolves as a product page)
	api := app.Group("/products/api")
	api.Get("/suggestions", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.Catalog.Suggest)
	api.Get("/featured", deps.Catalog.Featured)

	app.Get("/products/:slug", deps.Catalog.Detail)
	app.Post("/products/:slug/reviews", requireUser, deps.Catalog.AddReview)

	// Cart
	app.Get("/cart", deps.Cart.View)
	app.Post("/cart/add", deps.Cart.Add)
	app.Post("/cart/update/:id", deps.Cart.Update)
	app.Post("/cart/remove/:id", deps.Cart.Remove)

	// Wishlist
	app.Get("/wishlist", deps.Wishlist.List)
	app.Post("/wishlist", deps.Wishlist.Save)
	app.Post("/wishlist/delete", deps.Wishlist.Unsave)

	// Checkout
	app.Get("/checkout", requireUser, deps.Checkout.Checkout)
	app.Post("/checkout/place-order", requireUser, deps.Checkout.PlaceOrder)
	app.Post("/checkout/verify-payment", requireUser, deps.Checkout.VerifyPayment)

	// Account
	app.Get("/account", requireUser, deps.Account.Profile)
	app.Get("/account/orders", requireUser, deps.Account.OrderHistory)
	app.Get("/account/orders/:id", requireUser, deps.Account.OrderDetail)
	app.Post("/account/addresses", requireUser, deps.Account.AddAddress)
	app.Post("/account/addresses/:id", requireUser, deps.Account.UpdateAddress)
	app.Post("/account/addresses/:id/delete", requireUser, deps.Account.DeleteAddress)

	// Auth (login throttled)
	app.Get("/auth/login", deps.Auth.LoginForm)
	app.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.Auth.Login)
	app.Get("/auth/register", deps.Auth.RegisterForm)
	app.Post("/auth/register", deps.Auth.Register)
	app.Post("/auth/logout", deps.Auth.Logout)
	app.Get("/auth/forgot-password", deps.Auth.ForgotForm)
	app.Post("/auth/forgot-password", deps.Auth.Forgot)
	app.Get("/auth/reset-password/:token", deps.Auth.ResetForm)
	app.Post("/auth/reset-password/:token", deps.Auth.Reset)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(deps.AuthSvc))
	admin.Get("/", deps.Admin.Dashboard)
	admin.Get("/products", deps.Admin.ProductsPage)
	admin.Get("/products/add", deps.Admin.ProductForm)
	admin.Post("/products", deps.Admin.CreateProduct)
	admin.Post("/products/bulk-upload", deps.Admin.BulkUpload)
	admin.Get("/products/:id/edit", deps.Admin.EditProductForm)
	admin.Post("/products/:id", deps.Admin.UpdateProduct)
	admin.Get("/categories", deps.Admin.CategoriesPage)
	admin.Post("/categories", deps.Admin.CreateCategory)
	admin.Get("/orders", deps.Admin.OrdersPage)
	admin.Post("/orders/:id/status", deps.Admin.UpdateOrderStatus)
	admin.Get("/users", deps.Admin.UsersPage)

	// Health, metrics & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal(err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return app.ShutdownWithContext(ctx)
			},
			"cache": func(ctx context.Context) error {
				return deps.Cache.Close()
			},
			"database": func(ctx context.Context) error {
				return db.Close()
			},
		},
	)
	os.Exit(<-wait)
}
