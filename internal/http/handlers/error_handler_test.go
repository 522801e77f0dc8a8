package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	applog "linenloft/internal/log"
)

// The central error handler must render a friendly page and never echo the
// underlying error text to the client.
func TestErrorHandlerHidesInternals(t *testing.T) {
	engine := html.New("../../../web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("sqlite: secret table is on fire")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "secret table") {
		t.Fatal("error handler leaked internals to the client")
	}
	if !strings.Contains(string(body), "Something went wrong") {
		t.Fatal("friendly message missing from error page")
	}
}
