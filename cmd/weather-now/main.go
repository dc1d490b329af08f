package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/weather-now/internal/api/http"
	"github.com/i474232898/weather-now/internal/config"
	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/scheduler"
	"github.com/i474232898/weather-now/internal/session"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
	"github.com/i474232898/weather-now/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound calls.
	httpCfg := providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.ProviderMaxRetries,
			InitialInterval: cfg.ProviderBackoffInitial,
			MaxInterval:     cfg.ProviderBackoffMax,
		},
	}

	var geocoder weather.Geocoder
	switch cfg.GeocoderBackend {
	case config.GeocoderGoogle:
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey, metrics, logger)
	default:
		geocoder = providers.NewOpenMeteoGeocoder(httpCfg, cfg.GeocodingSearchURL, cfg.GeocodingReverseURL, metrics, logger)
	}
	logger.Info("geocoder configured", "backend", cfg.GeocoderBackend)

	geocoder, closeCache := withCache(cfg, geocoder, metrics, logger)
	defer closeCache()

	forecaster := providers.NewOpenMeteoProvider(httpCfg, cfg.ForecastURL, metrics, logger)
	resolver := weather.NewResolver(geocoder)

	sessions := store.NewMemoryStore(func() *session.Controller {
		return session.NewController(resolver, forecaster, metrics, logger)
	}, cfg.SessionMax, cfg.SessionIdleTimeout, nil, metrics)

	sweeper := scheduler.New(sessions, cfg.SessionSweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("failed to start session sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	app := httpapi.NewApp(sessions, logger, httpapi.Options{AccessLog: true})

	go func() {
		logger.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

// withCache wraps geocoder with the configured cache. Redis is preferred when
// REDIS_ADDR is set; if it is unreachable the in-memory LRU is used instead.
func withCache(cfg *config.AppConfig, geocoder weather.Geocoder, metrics *observability.Metrics, logger *slog.Logger) (weather.Geocoder, func()) {
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()

		rc, err := providers.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.GeocodeCacheTTL, logger)
		if err == nil {
			logger.Info("geocode cache: redis", "addr", cfg.RedisAddr, "ttl", cfg.GeocodeCacheTTL)
			return providers.NewCachedGeocoder(geocoder, rc, metrics), func() {
				if err := rc.Close(); err != nil {
					logger.Error("redis close error", "error", err)
				}
			}
		}
		logger.Warn("redis unavailable, falling back to in-memory geocode cache", "error", err)
	}

	if cfg.GeocodeCacheSize == 0 {
		logger.Info("geocode cache disabled")
		return geocoder, func() {}
	}
	logger.Info("geocode cache: lru", "size", cfg.GeocodeCacheSize)
	return providers.NewCachedGeocoder(geocoder, providers.NewLRUCache(cfg.GeocodeCacheSize), metrics), func() {}
}
