package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.ForecastURL)
	assert.Equal(t, "https://geocoding-api.open-meteo.com/v1/search", cfg.GeocodingSearchURL)
	assert.Equal(t, "https://geocoding-api.open-meteo.com/v1/reverse", cfg.GeocodingReverseURL)
	assert.Equal(t, GeocoderOpenMeteo, cfg.GeocoderBackend)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.GeocodeCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 0, cfg.ProviderMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.ProviderBackoffInitial)
	assert.Equal(t, 5*time.Second, cfg.ProviderBackoffMax)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 10000, cfg.SessionMax)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("FORECAST_URL", "http://localhost:1/forecast")
	t.Setenv("GEOCODER_BACKEND", "google")
	t.Setenv("GOOGLE_GEOCODER_API_KEY", "key")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PROVIDER_MAX_RETRIES", "2")
	t.Setenv("SESSION_IDLE_TIMEOUT", "1h")
	t.Setenv("SESSION_MAX", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "http://localhost:1/forecast", cfg.ForecastURL)
	assert.Equal(t, GeocoderGoogle, cfg.GeocoderBackend)
	assert.Equal(t, "key", cfg.GoogleGeocoderAPIKey)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 2, cfg.ProviderMaxRetries)
	assert.Equal(t, time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, 5, cfg.SessionMax)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"HTTP_TIMEOUT", "soon", "HTTP_TIMEOUT"},
		{"HTTP_TIMEOUT", "0s", "HTTP_TIMEOUT"},
		{"SESSION_IDLE_TIMEOUT", "abc", "SESSION_IDLE_TIMEOUT"},
		{"SESSION_SWEEP_INTERVAL", "-1m", "SESSION_SWEEP_INTERVAL"},
		{"GEOCODE_CACHE_SIZE", "many", "GEOCODE_CACHE_SIZE"},
		{"PROVIDER_MAX_RETRIES", "-1", "PROVIDER_MAX_RETRIES"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"GEOCODER_BACKEND", "bing", "GEOCODER_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_GoogleBackendRequiresKey(t *testing.T) {
	t.Setenv("GEOCODER_BACKEND", "google")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_GEOCODER_API_KEY")
}
