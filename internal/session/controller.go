package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// ErrLookupInProgress is returned when a lookup is triggered while another
// one in the same session has not settled yet. The state is left untouched.
var ErrLookupInProgress = errors.New("a lookup is already in progress")

// Resolver turns names or coordinates into displayable locations.
type Resolver interface {
	ResolveByName(ctx context.Context, query string) (weather.ResolvedLocation, error)
	ResolveByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.ResolvedLocation, error)
}

// Controller owns one session's State and sequences lookups against it.
// All state changes go through Apply.
type Controller struct {
	mu    sync.Mutex
	state State

	resolver   Resolver
	forecaster weather.Forecaster
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewController creates a Controller with an empty State.
func NewController(resolver Resolver, forecaster weather.Forecaster, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		resolver:   resolver,
		forecaster: forecaster,
		metrics:    metrics,
		logger:     logger,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetQuery records input text without starting a lookup.
func (c *Controller) SetQuery(query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading {
		return ErrLookupInProgress
	}
	c.state = Apply(c.state, QueryChanged{Query: query})
	return nil
}

// SearchByName resolves query and fetches its current weather. Lookup
// failures end up in State().Error; the only returned error is
// ErrLookupInProgress.
func (c *Controller) SearchByName(ctx context.Context, query string) error {
	const flow = "name"

	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		c.observe(flow, "busy")
		return ErrLookupInProgress
	}
	c.state = Apply(c.state, QueryChanged{Query: query})
	if strings.TrimSpace(query) == "" {
		c.state = Apply(c.state, Rejected{Message: UserMessage(weather.ErrEmptyQuery)})
		c.mu.Unlock()
		c.observe(flow, "rejected")
		return nil
	}
	c.state = Apply(c.state, Started{})
	c.mu.Unlock()

	loc, err := c.resolver.ResolveByName(ctx, query)
	if err != nil {
		c.fail(flow, err)
		return nil
	}
	c.apply(Located{Coordinates: loc.Coordinates})

	c.fetch(ctx, flow, loc)
	return nil
}

// SearchByLocation asks locator for a position fix, names it and fetches its
// current weather. A nil locator means the capability is unavailable.
func (c *Controller) SearchByLocation(ctx context.Context, locator Locator) error {
	const flow = "location"

	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		c.observe(flow, "busy")
		return ErrLookupInProgress
	}
	if locator == nil {
		c.state = Apply(c.state, Rejected{Message: UserMessage(weather.ErrLocationUnsupported)})
		c.mu.Unlock()
		c.observe(flow, "rejected")
		return nil
	}
	c.state = Apply(c.state, Started{})
	c.mu.Unlock()

	coords, err := locator.Locate(ctx)
	if err != nil {
		c.logger.Info("position fix failed", "error", err)
		c.fail(flow, weather.ErrLocationDenied)
		return nil
	}
	c.apply(Located{Coordinates: coords})

	// Reverse lookup failures are recoverable: the fallback name is used and
	// the session error stays clear.
	loc, err := c.resolver.ResolveByCoordinates(ctx, coords)
	if err != nil {
		c.logger.Warn("reverse geocoding failed, using coordinates as name",
			"lat", coords.Latitude,
			"lon", coords.Longitude,
			"error", err,
		)
	}

	c.fetch(ctx, flow, loc)
	return nil
}

func (c *Controller) fetch(ctx context.Context, flow string, loc weather.ResolvedLocation) {
	cc, err := c.forecaster.Current(ctx, loc.Coordinates)
	if err != nil {
		c.fail(flow, err)
		return
	}

	c.apply(Succeeded{View: weather.NewView(loc.DisplayName, cc)})
	c.observe(flow, "success")
	c.logger.Info("lookup succeeded",
		"flow", flow,
		"location", loc.DisplayName,
		"weathercode", cc.WeatherCode,
	)
}

func (c *Controller) fail(flow string, err error) {
	msg := UserMessage(err)
	c.apply(Failed{Message: msg})
	c.observe(flow, "failed")
	c.logger.Info("lookup failed", "flow", flow, "message", msg, "error", err)
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	c.state = Apply(c.state, ev)
	c.mu.Unlock()
}

func (c *Controller) observe(flow, outcome string) {
	if c.metrics != nil {
		c.metrics.Lookups.WithLabelValues(flow, outcome).Inc()
	}
}
