package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"linenloft/internal/http/handlers"
	"linenloft/internal/repos"
	"linenloft/internal/services"
)

// Minimal app for admin guard testing
func newAdminApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Secret: "test-secret"}

	engine := html.New("../../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	return app, userRepo
}

func TestAdminGuardRequiresAdmin(t *testing.T) {
	app, userRepo := newAdminApp(t)

	// Anonymous -> redirect to login
	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected redirect/forbidden, got %d", resp.StatusCode)
	}

	// Logged-in customer -> 403
	_ = userRepo.BindSession("sid-user", "u-demo", 24*time.Hour)
	reqUser := httptest.NewRequest("GET", "/admin", nil)
	reqUser.AddCookie(&http.Cookie{Name: "sid", Value: "sid-user"})
	respUser, err := app.Test(reqUser)
	if err != nil {
		t.Fatal(err)
	}
	if respUser.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", respUser.StatusCode)
	}

	// Admin -> 200
	_ = userRepo.BindSession("sid-admin", "u-admin", 24*time.Hour)
	reqAdmin := httptest.NewRequest("GET", "/admin", nil)
	reqAdmin.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	respAdmin, err := app.Test(reqAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if respAdmin.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", respAdmin.StatusCode)
	}
}

func TestExpiredSessionIsAnonymous(t *testing.T) {
	app, userRepo := newAdminApp(t)

	_ = userRepo.BindSession("sid-stale", "u-admin", -1*time.Hour)
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-stale"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode == http.StatusOK {
		t.Fatal("expired admin session must not grant access")
	}
}
