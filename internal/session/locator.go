package session

import (
	"context"

	"github.com/i474232898/weather-now/internal/weather"
)

// Locator is a device location capability able to produce one position fix.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// FixedLocator replays a fix (or its failure) that was already obtained,
// e.g. by the browser before it posted to the server.
type FixedLocator struct {
	Coordinates weather.Coordinates
	Err         error
}

func (l FixedLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}
	if l.Err != nil {
		return weather.Coordinates{}, l.Err
	}
	return l.Coordinates, nil
}
