package server

import (
	"log/slog"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/santinisystems/catalog/internal/handler"
	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/middleware"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/service"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger  *slog.Logger
	Catalog *service.CatalogService
	Tokens  *service.TokenService
	Metrics metrics.Recorder

	// DB and Cache back /readyz.
	DB    handler.HealthChecker
	Cache handler.HealthChecker

	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig

	MaxRequestBodySize int64

	// TrustedProxies may set the client address via forwarding headers.
	TrustedProxies []netip.Prefix
	// Development drops HSTS.
	Development bool
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Cache)
	productHandler := handler.NewProductHandler(cfg.Catalog, logger)
	manufacturerHandler := handler.NewManufacturerHandler(cfg.Catalog, logger)
	tokenHandler := handler.NewTokenHandler(cfg.Tokens, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP(cfg.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.Development}))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if snap, ok := cfg.Metrics.(metrics.Snapshotter); ok {
		r.Get("/metrics", handler.NewMetricsHandler(snap).Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// Token issuing is the only public API route.
		r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/tokens", tokenHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth))
			r.Use(middleware.RequireRole(model.RoleUser))
			r.Use(middleware.RateLimitAPI(cfg.RateLimit))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Post("/", productHandler.Create)
				r.Get("/{id}", productHandler.Get)
				r.Put("/{id}", productHandler.Update)
			})

			r.Route("/manufacturers", func(r chi.Router) {
				r.Get("/", manufacturerHandler.List)
				r.Post("/", manufacturerHandler.Create)
				r.Get("/{id}", manufacturerHandler.Get)
				r.Put("/{id}", manufacturerHandler.Update)
				r.Patch("/{id}", manufacturerHandler.Update)
			})

			r.Get("/manufacturer/{id}/products", productHandler.ListByManufacturer)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
