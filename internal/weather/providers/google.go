package providers

import (
	"context"
	"log/slog"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder on top of the Google Geocoding
// API through github.com/kelvins/geocoder. The library keeps its API key in a
// package variable and does not take a context, so only one key per process
// is supported and cancellation is checked before each call.
type GoogleGeocoder struct {
	circuit *gobreaker.CircuitBreaker
	metrics *observability.Metrics
	logger  *slog.Logger

	// overridable in tests
	geocode func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(apiKey string, metrics *observability.Metrics, logger *slog.Logger) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		circuit: newCircuitBreaker("google_geocoder"),
		metrics: metrics,
		logger:  logger,
		geocode: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

// Search geocodes name, treated as a free-form city query.
func (g *GoogleGeocoder) Search(ctx context.Context, name string) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, &weather.TransportError{Message: "Failed to fetch geolocation data", Err: err}
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		return g.geocode(geocoder.Address{City: name})
	})
	if err != nil {
		g.observe("forward", "error")
		g.logger.Warn("google forward geocoding failed", "query", name, "error", err)
		return weather.Place{}, &weather.TransportError{Message: "Failed to fetch geolocation data", Err: err}
	}

	loc, _ := result.(geocoder.Location)
	if loc.Latitude == 0 && loc.Longitude == 0 {
		g.observe("forward", "empty")
		return weather.Place{}, weather.ErrNotFound
	}

	g.observe("forward", "success")
	// The forward call only yields coordinates; the query stands in for the name.
	return weather.Place{
		Name:        name,
		Coordinates: weather.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude},
	}, nil
}

// Reverse returns the first address Google reports for coords.
func (g *GoogleGeocoder) Reverse(ctx context.Context, coords weather.Coordinates) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, &weather.TransportError{Message: "Failed to fetch location name data", Err: err}
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		return g.reverse(geocoder.Location{Latitude: coords.Latitude, Longitude: coords.Longitude})
	})
	if err != nil {
		g.observe("reverse", "error")
		return weather.Place{}, &weather.TransportError{Message: "Failed to fetch location name data", Err: err}
	}

	addrs, _ := result.([]geocoder.Address)
	if len(addrs) == 0 {
		g.observe("reverse", "empty")
		return weather.Place{}, weather.ErrNotFound
	}

	g.observe("reverse", "success")
	a := addrs[0]
	return weather.Place{
		Name:        a.City,
		Admin1:      a.State,
		Country:     a.Country,
		Coordinates: coords,
	}, nil
}

func (g *GoogleGeocoder) observe(method, outcome string) {
	if g.metrics != nil {
		g.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
	}
}
