package weather

import (
	"context"
)

// Geocoder abstracts a geocoding service (e.g. Open-Meteo, Google).
type Geocoder interface {
	// Search returns the first candidate for a free-text place name, or
	// ErrNotFound when there are none.
	Search(ctx context.Context, name string) (Place, error)
	// Reverse returns the first candidate near coords, or ErrNotFound.
	Reverse(ctx context.Context, coords Coordinates) (Place, error)
}

// Forecaster abstracts a forecast service that can report current conditions.
type Forecaster interface {
	Current(ctx context.Context, coords Coordinates) (CurrentConditions, error)
}
