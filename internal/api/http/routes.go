package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-now/internal/session"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

const sessionCookie = "wn_session"

var validate = validator.New()

// Options tweaks the app built by NewApp.
type Options struct {
	AccessLog bool
}

// NewApp builds the Fiber app with middleware, health, metrics and the
// weather routes.
func NewApp(sessions *store.MemoryStore, log *slog.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-now",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// lookups run two upstream calls back to back
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("request failed", "path", c.Path(), "error", err)
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-now",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(app, sessions)
	return app
}

// RegisterRoutes wires the page and API handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, sessions *store.MemoryStore) {
	app.Get("/", func(c *fiber.Ctx) error {
		ctrl := sessionFor(c, sessions)
		return renderPage(c, ctrl.State())
	})

	app.Post("/search", func(c *fiber.Ctx) error {
		var req nameRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		ctrl := sessionFor(c, sessions)
		// A busy session already shows its loading state on the page.
		_ = ctrl.SearchByName(c.UserContext(), req.Query)
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	app.Post("/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		locator, err := req.locator()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ctrl := sessionFor(c, sessions)
		_ = ctrl.SearchByLocation(c.UserContext(), locator)
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/session", func(c *fiber.Ctx) error {
		ctrl := sessionFor(c, sessions)
		return c.JSON(newStateResponse(ctrl.State()))
	})

	v1.Post("/search/name", func(c *fiber.Ctx) error {
		var req nameRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		ctrl := sessionFor(c, sessions)
		if err := ctrl.SearchByName(c.UserContext(), req.Query); err != nil {
			return lookupError(err)
		}
		return c.JSON(newStateResponse(ctrl.State()))
	})

	v1.Post("/search/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		locator, err := req.locator()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ctrl := sessionFor(c, sessions)
		if err := ctrl.SearchByLocation(c.UserContext(), locator); err != nil {
			return lookupError(err)
		}
		return c.JSON(newStateResponse(ctrl.State()))
	})
}

// sessionFor returns the caller's controller, issuing a session cookie when
// the request carries none (or an unknown/invalid one).
func sessionFor(c *fiber.Ctx, sessions *store.MemoryStore) *session.Controller {
	id := c.Cookies(sessionCookie)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	ctrl, created := sessions.Get(id)
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return ctrl
}

func lookupError(err error) error {
	if errors.Is(err, session.ErrLookupInProgress) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}

func bindAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// nameRequest is the body of a search-by-name trigger. An empty query is
// valid here; the controller turns it into a user-facing error.
type nameRequest struct {
	Query string `json:"query" form:"place" validate:"max=200"`
}

// locationRequest carries the outcome of the browser's position request.
type locationRequest struct {
	Latitude  *float64 `json:"latitude" form:"lat" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" form:"lon" validate:"omitempty,gte=-180,lte=180"`
	Status    string   `json:"status" form:"status" validate:"omitempty,oneof=ok unsupported denied"`
}

var errMissingCoordinates = errors.New("latitude and longitude are required")

// locator converts the request into a device location capability. A nil
// Locator means the browser has none.
func (r locationRequest) locator() (session.Locator, error) {
	switch r.Status {
	case "unsupported":
		return nil, nil
	case "denied":
		return session.FixedLocator{Err: weather.ErrLocationDenied}, nil
	}
	if r.Latitude == nil || r.Longitude == nil {
		return nil, errMissingCoordinates
	}
	return session.FixedLocator{Coordinates: weather.Coordinates{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}}, nil
}

// stateResponse is the JSON view of a session.
type stateResponse struct {
	session.State
	Theme string `json:"theme,omitempty"`
}

func newStateResponse(s session.State) stateResponse {
	return stateResponse{State: s, Theme: s.Theme()}
}
