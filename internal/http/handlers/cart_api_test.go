package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"linenloft/internal/http/handlers"
	"linenloft/internal/repos"
	"linenloft/internal/services"
)

func newCartApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cartSvc := services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db), 999, 50)
	h := &handlers.CartHandler{Cart: cartSvc, Sessions: handlers.Sessions{}}

	app := fiber.New()
	app.Post("/cart/add", h.Add)
	app.Post("/cart/update/:id", h.Update)
	return app
}

func postForm(t *testing.T, app *fiber.App, path, form string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-cart-api"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestCartAddJSON(t *testing.T) {
	app := newCartApp(t)

	resp, body := postForm(t, app, "/cart/add", "productId=prod-sateen-400&size=Queen&color=Ivory&qty=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Fatalf("want success=true, got %v", body)
	}
	if body["cartCount"] != float64(2) {
		t.Fatalf("want cartCount 2, got %v", body["cartCount"])
	}

	// same variant again merges; count rises to 3
	_, body = postForm(t, app, "/cart/add", "productId=prod-sateen-400&size=Queen&color=Ivory&qty=1")
	if body["cartCount"] != float64(3) {
		t.Fatalf("want cartCount 3, got %v", body["cartCount"])
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	app := newCartApp(t)

	resp, body := postForm(t, app, "/cart/add", "productId=prod-missing&qty=1")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
	if body["error"] == nil {
		t.Fatalf("want an error body, got %v", body)
	}
}

func TestCartAddRejectsMissingProductID(t *testing.T) {
	app := newCartApp(t)

	resp, _ := postForm(t, app, "/cart/add", "qty=1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestCartUpdateUnknownItem(t *testing.T) {
	app := newCartApp(t)

	resp, _ := postForm(t, app, "/cart/update/item-nope", "qty=2")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}
