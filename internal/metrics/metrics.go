// Package metrics registers the Prometheus collectors exposed at /metrics.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linenloft_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})

	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linenloft_orders_placed_total",
		Help: "Orders placed, by payment method.",
	}, []string{"method"})

	PaymentVerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linenloft_payment_verify_failures_total",
		Help: "Payment callbacks rejected for a bad signature.",
	})

	EmailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linenloft_email_failures_total",
		Help: "Transactional emails that failed to send.",
	})

	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linenloft_import_rows_total",
		Help: "CSV import rows by outcome (created, skipped).",
	}, []string{"outcome"})
)

// Middleware counts every request once the handler chain has finished.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		HTTPRequests.WithLabelValues(c.Method(), strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	}
}
