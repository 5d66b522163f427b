// Package main is the entrypoint for the catalog API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/santinisystems/catalog/internal/cache"
	"github.com/santinisystems/catalog/internal/config"
	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/middleware"
	"github.com/santinisystems/catalog/internal/migration"
	"github.com/santinisystems/catalog/internal/repository"
	"github.com/santinisystems/catalog/internal/server"
	"github.com/santinisystems/catalog/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := runMigrations(cfg, logger); err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewInMemory()
	catalog := service.NewCatalogService(repo, cacheClient, service.CatalogOptions{
		ProductPageSize:      cfg.ProductPageSize,
		ManufacturerPageSize: cfg.ManufacturerPageSize,
	}, recorder, logger)
	tokens := service.NewTokenService(repo, cfg.APITokenTTL, recorder)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := server.NewRouter(server.RouterConfig{
		Logger:  logger,
		Catalog: catalog,
		Tokens:  tokens,
		Metrics: recorder,
		DB:      repo,
		Cache:   cacheClient,
		Auth: middleware.AuthConfig{
			Logger:  logger,
			Store:   repo,
			Cache:   cacheClient,
			Metrics: recorder,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:       logger,
			Limiter:      cacheClient,
			Metrics:      recorder,
			APIEnabled:   cfg.RateLimitAPIEnabled,
			APIRPM:       cfg.RateLimitAPIRPM,
			APIBurst:     cfg.RateLimitAPIBurst,
			TokenEnabled: cfg.RateLimitTokenEnabled,
			TokenRPS:     cfg.RateLimitTokenRPS,
			TokenBurst:   cfg.RateLimitTokenBurst,
		},
		CORS:               corsCfg,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		TrustedProxies:     trustedProxies,
		Development:        cfg.IsDevelopment(),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"product_page_size", cfg.ProductPageSize,
		"manufacturer_page_size", cfg.ManufacturerPageSize,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runMigrations applies pending migrations before the pool is opened.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	m, err := migration.New(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
