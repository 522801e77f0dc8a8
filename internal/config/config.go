package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is built once at startup and passed down; components never read
// environment variables themselves.
type Config struct {
	Env     string // development | production
	Port    string
	BaseURL string

	DBDSN      string
	UploadsDir string
	LogFile    string

	SessionSecret string
	CookieSecure  bool

	// Pricing
	FreeShipThreshold float64
	ShippingFee       float64

	// Razorpay
	RazorpayKeyID  string
	RazorpaySecret string

	// SMTP (optional; mail becomes a logged no-op when host is empty)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Redis (optional; caching disabled when empty)
	RedisAddr string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads .env (if present) and the process environment, and validates
// that everything the checkout flow needs is actually set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8080"),
		BaseURL: getenv("BASE_URL", "http://localhost:8080"),

		DBDSN:      getenv("DB_DSN", "linenloft.db"),
		UploadsDir: getenv("UPLOADS_DIR", "./web/uploads"),
		LogFile:    getenv("LOG_FILE", ""),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		FreeShipThreshold: getfloat("FREE_SHIPPING_THRESHOLD", 999),
		ShippingFee:       getfloat("SHIPPING_FEE", 50),

		RazorpayKeyID:  os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		SMTPHost: os.Getenv("EMAIL_HOST"),
		SMTPPort: getint("EMAIL_PORT", 587),
		SMTPUser: os.Getenv("EMAIL_USER"),
		SMTPPass: os.Getenv("EMAIL_PASS"),
		MailFrom: getenv("EMAIL_FROM", "orders@linenloft.test"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
	}
	cfg.CookieSecure = cfg.Env == "production"

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("config: SESSION_SECRET is required")
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpaySecret == "" {
		return Config{}, fmt.Errorf("config: RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	if cfg.ShippingFee < 0 || cfg.FreeShipThreshold < 0 {
		return Config{}, fmt.Errorf("config: shipping fee and free-shipping threshold must be >= 0")
	}
	return cfg, nil
}
