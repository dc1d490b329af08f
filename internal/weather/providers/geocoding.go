package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// OpenMeteoGeocoder implements weather.Geocoder for the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	searchURL  string
	reverseURL string
	forward    *upstream
	reverse    *upstream
	metrics    *observability.Metrics
}

func NewOpenMeteoGeocoder(httpCfg HTTPClientConfig, searchURL, reverseURL string, metrics *observability.Metrics, logger *slog.Logger) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		searchURL:  searchURL,
		reverseURL: reverseURL,
		forward:    newUpstream("geocode_forward", "Failed to fetch geolocation data", httpCfg, metrics, logger),
		reverse:    newUpstream("geocode_reverse", "Failed to fetch location name data", httpCfg, metrics, logger),
		metrics:    metrics,
	}
}

// Search looks up name and returns the first candidate.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, name string) (weather.Place, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", "1")

	return g.first(ctx, g.forward, "forward", fmt.Sprintf("%s?%s", g.searchURL, values.Encode()))
}

// Reverse returns the first candidate near coords.
func (g *OpenMeteoGeocoder) Reverse(ctx context.Context, coords weather.Coordinates) (weather.Place, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(coords.Latitude))
	values.Set("longitude", formatCoord(coords.Longitude))
	values.Set("count", "1")

	return g.first(ctx, g.reverse, "reverse", fmt.Sprintf("%s?%s", g.reverseURL, values.Encode()))
}

func (g *OpenMeteoGeocoder) first(ctx context.Context, up *upstream, method, fullURL string) (weather.Place, error) {
	var payload geocodingResponse
	if err := up.getJSON(ctx, fullURL, &payload); err != nil {
		g.observe(method, "error")
		return weather.Place{}, err
	}

	if len(payload.Results) == 0 {
		g.observe(method, "empty")
		return weather.Place{}, weather.ErrNotFound
	}

	g.observe(method, "success")
	r := payload.Results[0]
	return weather.Place{
		Name:    r.Name,
		Admin1:  r.Admin1,
		Country: r.Country,
		Coordinates: weather.Coordinates{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		},
	}, nil
}

func (g *OpenMeteoGeocoder) observe(method, outcome string) {
	if g.metrics != nil {
		g.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
	}
}

// Open-Meteo geocoding response types.

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}
