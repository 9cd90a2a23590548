package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codenexus/storefront/internal/auth"
	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/storefront"
	"github.com/codenexus/storefront/pkg/health"
	"github.com/codenexus/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries everything the storefront API is built from.
type RouterConfig struct {
	Catalog         ProductCatalog
	Registry        *storefront.Registry
	Auth            *auth.Service
	Health          *health.Handler
	Logger          *slog.Logger
	DefaultLanguage domain.Language

	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	RateLimitRPS   float64
	RateLimitBurst int
	CatalogMaxAge  time.Duration
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.DefaultLanguage, logger)
	cartHandler := NewCartHandler(cfg.Catalog, cfg.Registry, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Catalog, cfg.Registry, logger)
	authHandler := NewAuthHandler(cfg.Auth, logger)
	adminHandler := NewAdminHandler(cfg.Registry.Payments(), logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public catalog, safe to cache.
		r.Group(func(r chi.Router) {
			if cfg.CatalogMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			}
			r.Get("/languages", catalogHandler.ListLanguages)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
		})

		r.Post("/auth/login", authHandler.Login)

		// Visitor-scoped state.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Visitor(authenticator(cfg.Auth)))
			if cfg.RateLimitRPS > 0 {
				r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.ByVisitor, logger))
			}

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)

			r.Put("/preferences/language", cartHandler.SetLanguage)

			r.Post("/checkout", checkoutHandler.StartCheckout)
			r.Get("/checkout", checkoutHandler.GetCheckout)
			r.Post("/checkout/{sessionId}/confirm", checkoutHandler.ConfirmCheckout)
			r.Post("/checkout/{sessionId}/cancel", checkoutHandler.CancelCheckout)

			r.Get("/purchases", checkoutHandler.ListPurchases)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Get("/payments", adminHandler.GetPayments)
				r.Put("/payments", adminHandler.SetPayments)
			})
		})
	})

	return r
}
