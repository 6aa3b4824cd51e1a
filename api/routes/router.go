package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Nil services answer with
// an internal error instead of panicking.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	Catalog      catalog.Loader
	IsLowStock   func(catalog.Product) bool
	CatalogAdmin controllers.CatalogAdmin
	StockAdmin   controllers.StockAdmin
	Cart         cart.Service
	Checkout     checkoutsvc.Service
	Settings     settings.Service
	Orders       orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.Checkout.RateLimitWindow,
		cfg.Checkout.RateLimitIP,
		cfg.Checkout.RateLimitPhone,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": pingerOrNil(deps.Redis),
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(logg))
		r.Use(middleware.Idempotency(storeOrNil(deps.Redis), middleware.IdempotencyOptions{CheckoutTTL: cfg.Checkout.IdempotencyTTL}, logg))

		r.Get("/catalog", controllers.CatalogMenu(deps.Catalog, deps.IsLowStock, logg))
		r.Get("/store/status", controllers.StoreStatus(deps.Settings, logg))
		r.Get("/orders", controllers.CustomerOrders(deps.Orders, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.With(middleware.RateLimit(checkoutPolicy, limiterOrNil(deps.Redis), logg)).Post("/", controllers.Checkout(deps.Checkout, logg))
			r.Post("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/catalog", controllers.AdminCatalog(deps.Catalog, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminSaveCategory(deps.CatalogAdmin, logg))
				r.Put("/{categoryId}", controllers.AdminSaveCategory(deps.CatalogAdmin, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.CatalogAdmin, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminSaveProduct(deps.CatalogAdmin, logg))
				r.Put("/{productId}", controllers.AdminSaveProduct(deps.CatalogAdmin, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.CatalogAdmin, logg))
				r.Put("/{productId}/extras", controllers.AdminSetProductExtras(deps.CatalogAdmin, logg))
				r.Put("/{productId}/stock", controllers.AdminSetStock(deps.StockAdmin, logg))
			})
			r.Route("/extras-groups", func(r chi.Router) {
				r.Post("/", controllers.AdminSaveExtrasGroup(deps.CatalogAdmin, logg))
				r.Put("/{groupId}", controllers.AdminSaveExtrasGroup(deps.CatalogAdmin, logg))
				r.Delete("/{groupId}", controllers.AdminDeleteExtrasGroup(deps.CatalogAdmin, logg))
			})
			r.Get("/stock/low", controllers.AdminLowStock(deps.StockAdmin, logg))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/store", controllers.AdminGetStoreConfig(deps.Settings, logg))
				r.Put("/store", controllers.AdminUpdateStoreConfig(deps.Settings, logg))
				r.Get("/hours", controllers.AdminGetHours(deps.Settings, logg))
				r.Put("/hours", controllers.AdminApplyHours(deps.Settings, logg))
				r.Get("/fees", controllers.AdminGetFees(deps.Settings, logg))
				r.Put("/fees", controllers.AdminApplyFees(deps.Settings, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
				r.Post("/", controllers.AdminCreateOrder(deps.Checkout, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
				r.Post("/{orderId}/advance", controllers.AdminAdvanceOrder(deps.Orders, logg))
				r.Post("/{orderId}/confirm-payment", controllers.AdminConfirmPayment(deps.Orders, logg))
			})
		})
	})

	return r
}

// The helpers below keep a nil *redis.Client from becoming a non-nil interface.

func pingerOrNil(c *redis.Client) controllers.Pinger {
	if c == nil {
		return nil
	}
	return c
}

func storeOrNil(c *redis.Client) redis.IdempotencyStore {
	if c == nil {
		return nil
	}
	return c
}

type limiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func limiterOrNil(c *redis.Client) limiter {
	if c == nil {
		return nil
	}
	return c
}
