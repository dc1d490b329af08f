package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// OpenMeteoProvider implements weather.Forecaster for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	baseURL string
	up      *upstream
}

func NewOpenMeteoProvider(httpCfg HTTPClientConfig, baseURL string, metrics *observability.Metrics, logger *slog.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL: baseURL,
		up:      newUpstream("forecast", "Failed to fetch weather data", httpCfg, metrics, logger),
	}
}

// openMeteoForecast is the relevant subset of the forecast response.
// CurrentWeather is nil when the service omits the block.
type openMeteoForecast struct {
	CurrentWeather *struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
}

// Current fetches the current-conditions snapshot for coords.
func (p *OpenMeteoProvider) Current(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(coords.Latitude))
	values.Set("longitude", formatCoord(coords.Longitude))
	values.Set("current_weather", "true")

	var payload openMeteoForecast
	if err := p.up.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		p.observe("error")
		return weather.CurrentConditions{}, err
	}

	if payload.CurrentWeather == nil {
		p.observe("unavailable")
		return weather.CurrentConditions{}, weather.ErrDataUnavailable
	}

	p.observe("success")
	cw := payload.CurrentWeather
	return weather.CurrentConditions{
		Temperature:     cw.Temperature,
		WindSpeed:       cw.WindSpeed,
		WindDirection:   cw.WindDirection,
		WeatherCode:     cw.WeatherCode,
		ObservationTime: cw.Time,
	}, nil
}

func (p *OpenMeteoProvider) observe(outcome string) {
	if p.up.metrics != nil {
		p.up.metrics.ForecastRequests.WithLabelValues(outcome).Inc()
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
