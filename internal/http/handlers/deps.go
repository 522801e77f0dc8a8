package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/cache"
	"linenloft/internal/config"
	"linenloft/internal/mail"
	"linenloft/internal/payment"
	"linenloft/internal/repos"
	"linenloft/internal/services"
)

// Deps wires repos into services into handlers. main builds one of these
// and registers routes off it.
type Deps struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Account  *AccountHandler
	Auth     *AuthHandler
	Wishlist *WishlistHandler
	Admin    *AdminHandler

	AuthSvc  *services.AuthService
	Users    *repos.UserRepo
	Sessions Sessions
	Cache    cache.Cache
}

func NewDeps(cfg config.Config, db *sqlx.DB) (*Deps, error) {
	prods := repos.NewProductRepo(db)
	cats := repos.NewCategoryRepo(db)
	users := repos.NewUserRepo(db)
	carts := repos.NewCartRepo(db)
	orders := repos.NewOrderRepo(db)
	wish := repos.NewWishlistRepo(db)

	var store cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(cfg.RedisAddr, "linenloft:", 5*time.Minute)
	}

	var mailer mail.Mailer = mail.NopMailer{}
	if cfg.SMTPHost != "" {
		m, err := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			return nil, err
		}
		mailer = m
	}

	catalogSvc := services.NewCatalogService(cats, prods)
	cartSvc := services.NewCartService(carts, prods, cfg.FreeShipThreshold, cfg.ShippingFee)
	authSvc := &services.AuthService{Users: users, Secret: cfg.SessionSecret}
	orderSvc := &services.OrderService{
		Cart:          cartSvc,
		Orders:        orders,
		Users:         users,
		Prods:         prods,
		Gateway:       payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpaySecret),
		Mailer:        mailer,
		PaymentSecret: cfg.RazorpaySecret,
	}
	wishSvc := services.NewWishlistService(wish)
	importSvc := services.NewImportService(cats, prods)

	sessions := Sessions{Secure: cfg.CookieSecure}

	return &Deps{
		Catalog:  &CatalogHandler{Catalog: catalogSvc, Cache: store},
		Cart:     &CartHandler{Cart: cartSvc, Sessions: sessions},
		Checkout: &CheckoutHandler{Cart: cartSvc, Order: orderSvc, Users: users, Sessions: sessions, RazorpayKeyID: cfg.RazorpayKeyID},
		Account:  &AccountHandler{Users: users, Orders: orders},
		Auth:     &AuthHandler{Auth: authSvc, Mailer: mailer, Sessions: sessions, BaseURL: cfg.BaseURL},
		Wishlist: &WishlistHandler{Wish: wishSvc, Sessions: sessions},
		Admin: &AdminHandler{
			Prods: prods, Cats: cats, Orders: orders, Users: users,
			Importer: importSvc, Cache: store, UploadsDir: cfg.UploadsDir,
		},
		AuthSvc:  authSvc,
		Users:    users,
		Sessions: sessions,
		Cache:    store,
	}, nil
}
