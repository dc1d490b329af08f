package weather

import (
	"context"
	"strings"
)

// Resolver turns place names or coordinates into displayable locations.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver creates a Resolver backed by the given geocoder.
func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// ResolveByName forward-geocodes query and keeps the first match. It fails
// with ErrEmptyQuery, ErrNotFound or a *TransportError.
func (r *Resolver) ResolveByName(ctx context.Context, query string) (ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ResolvedLocation{}, ErrEmptyQuery
	}

	place, err := r.geocoder.Search(ctx, query)
	if err != nil {
		return ResolvedLocation{}, err
	}

	return ResolvedLocation{
		DisplayName: place.DisplayName(),
		Coordinates: place.Coordinates,
	}, nil
}

// ResolveByCoordinates reverse-geocodes coords. The returned location is
// always usable: when the lookup fails or finds nothing, its display name is
// coords.FallbackName() and the cause is returned alongside it.
func (r *Resolver) ResolveByCoordinates(ctx context.Context, coords Coordinates) (ResolvedLocation, error) {
	loc := ResolvedLocation{
		DisplayName: coords.FallbackName(),
		Coordinates: coords,
	}

	place, err := r.geocoder.Reverse(ctx, coords)
	if err != nil {
		return loc, err
	}
	if name := place.DisplayName(); name != "" {
		loc.DisplayName = name
	}
	return loc, nil
}
