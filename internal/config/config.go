package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Geocoder backends.
const (
	GeocoderOpenMeteo = "openmeteo"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string // "text" or "json"

	// HTTPTimeout bounds each outbound call to the geocoding and forecast services.
	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration

	ForecastURL         string
	GeocodingSearchURL  string
	GeocodingReverseURL string

	GeocoderBackend      string
	GoogleGeocoderAPIKey string

	// Geocode cache. Redis is used when RedisAddr is set, otherwise an LRU.
	GeocodeCacheSize int           // 0 disables caching
	GeocodeCacheTTL  time.Duration // redis only
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Upstream resilience. MaxRetries 0 means a single attempt.
	ProviderMaxRetries     int
	ProviderBackoffInitial time.Duration
	ProviderBackoffMax     time.Duration

	// Session retention.
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	SessionMax           int // 0 = unlimited
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		LogLevel:             strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getenvDefault("LOG_FORMAT", "text")),
		ForecastURL:          getenvDefault("FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		GeocodingSearchURL:   getenvDefault("GEOCODING_SEARCH_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		GeocodingReverseURL:  getenvDefault("GEOCODING_REVERSE_URL", "https://geocoding-api.open-meteo.com/v1/reverse"),
		GeocoderBackend:      strings.ToLower(getenvDefault("GEOCODER_BACKEND", GeocoderOpenMeteo)),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"GEOCODE_CACHE_TTL", "24h", &cfg.GeocodeCacheTTL},
		{"PROVIDER_BACKOFF_INITIAL", "500ms", &cfg.ProviderBackoffInitial},
		{"PROVIDER_BACKOFF_MAX", "5s", &cfg.ProviderBackoffMax},
		{"SESSION_IDLE_TIMEOUT", "30m", &cfg.SessionIdleTimeout},
		{"SESSION_SWEEP_INTERVAL", "5m", &cfg.SessionSweepInterval},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"GEOCODE_CACHE_SIZE", 1000, &cfg.GeocodeCacheSize},
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"PROVIDER_MAX_RETRIES", 0, &cfg.ProviderMaxRetries},
		{"SESSION_MAX", 10000, &cfg.SessionMax},
	}
	for _, n := range ints {
		if *n.dst, err = getenvInt(n.key, n.def); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.GeocoderBackend {
	case GeocoderOpenMeteo:
	case GeocoderGoogle:
		if c.GoogleGeocoderAPIKey == "" {
			return fmt.Errorf("GEOCODER_BACKEND is google but GOOGLE_GEOCODER_API_KEY is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER_BACKEND %q", c.GeocoderBackend)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.ProviderBackoffInitial <= 0 {
		return fmt.Errorf("PROVIDER_BACKOFF_INITIAL must be positive")
	}
	if c.ProviderMaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.GeocodeCacheSize < 0 || c.SessionMax < 0 {
		return fmt.Errorf("GEOCODE_CACHE_SIZE and SESSION_MAX must not be negative")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
