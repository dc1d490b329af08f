package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/session"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

type fakeGeocoder struct{}

func (fakeGeocoder) Search(_ context.Context, name string) (weather.Place, error) {
	if name == "Atlantis" {
		return weather.Place{}, weather.ErrNotFound
	}
	return weather.Place{
		Name:        name,
		Country:     "Norway",
		Coordinates: weather.Coordinates{Latitude: 59.9127, Longitude: 10.7461},
	}, nil
}

func (fakeGeocoder) Reverse(_ context.Context, _ weather.Coordinates) (weather.Place, error) {
	return weather.Place{}, &weather.TransportError{Message: "Failed to fetch location name data"}
}

type fakeForecaster struct{}

func (fakeForecaster) Current(_ context.Context, _ weather.Coordinates) (weather.CurrentConditions, error) {
	return weather.CurrentConditions{
		Temperature:     4.2,
		WindSpeed:       12,
		WindDirection:   270,
		WeatherCode:     71,
		ObservationTime: "2026-10-18T09:00",
	}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	factory := func() *session.Controller {
		return session.NewController(weather.NewResolver(fakeGeocoder{}), fakeForecaster{}, nil, observability.DiscardLogger())
	}
	sessions := store.NewMemoryStore(factory, 0, time.Hour, nil, nil)
	return NewApp(sessions, observability.DiscardLogger(), Options{})
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, cookies ...*http.Cookie) (*http.Response, stateResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out stateResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookie)
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSession_InitialStateAndCookie(t *testing.T) {
	app := newTestApp(t)

	resp, state := doJSON(t, app, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.State{}, state.State)
	assert.Empty(t, state.Theme)

	cookie := sessionCookieFrom(t, resp)
	assert.True(t, cookie.HttpOnly)
}

func TestSearchByName_API(t *testing.T) {
	app := newTestApp(t)

	resp, state := doJSON(t, app, http.MethodPost, "/api/v1/search/name", `{"query":"Oslo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, state.Result)
	assert.Equal(t, "Oslo, Norway", state.Result.Location)
	assert.Equal(t, 71, state.Result.WeatherCode)
	assert.Equal(t, "bg-snow", state.Theme)
	assert.False(t, state.Loading)

	// The same session sees the result afterwards.
	cookie := sessionCookieFrom(t, resp)
	_, again := doJSON(t, app, http.MethodGet, "/api/v1/session", "", cookie)
	require.NotNil(t, again.Result)
	assert.Equal(t, "Oslo", again.Query)
}

func TestSearchByName_API_FailuresLiveInState(t *testing.T) {
	app := newTestApp(t)

	_, state := doJSON(t, app, http.MethodPost, "/api/v1/search/name", `{"query":"Atlantis"}`)
	assert.Equal(t, "Place not found", state.Error)
	assert.Nil(t, state.Result)

	_, state = doJSON(t, app, http.MethodPost, "/api/v1/search/name", `{"query":"  "}`)
	assert.Equal(t, "Please enter a place name", state.Error)
}

func TestSearchByName_API_BadBody(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/search/name", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/search/name", `{"query":"`+strings.Repeat("x", 201)+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchByLocation_API(t *testing.T) {
	app := newTestApp(t)

	_, state := doJSON(t, app, http.MethodPost, "/api/v1/search/location", `{"latitude":59.9127,"longitude":10.7461,"status":"ok"}`)
	require.NotNil(t, state.Result)
	assert.Equal(t, "Lat: 59.91, Lon: 10.75", state.Result.Location)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.LastCoordinates)
	assert.Equal(t, 59.9127, state.LastCoordinates.Latitude)
}

func TestSearchByLocation_API_Outcomes(t *testing.T) {
	app := newTestApp(t)

	_, state := doJSON(t, app, http.MethodPost, "/api/v1/search/location", `{"status":"unsupported"}`)
	assert.Equal(t, "Geolocation is not supported by your browser.", state.Error)

	_, state = doJSON(t, app, http.MethodPost, "/api/v1/search/location", `{"status":"denied"}`)
	assert.Equal(t, "Failed to retrieve location.", state.Error)
}

func TestSearchByLocation_API_Validation(t *testing.T) {
	app := newTestApp(t)

	for _, body := range []string{
		`{"latitude":91,"longitude":0}`,
		`{"latitude":0,"longitude":-181}`,
		`{"latitude":10}`,
		`{"status":"maybe"}`,
	} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/search/location", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestPage_FormFlow(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"place": {"Oslo"}}
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	cookie := sessionCookieFrom(t, resp)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, `class="app-container bg-snow"`)
	assert.Contains(t, page, "Oslo, Norway")
	assert.Contains(t, page, "Coordinates: Latitude 59.9127, Longitude 10.7461")
	assert.Contains(t, page, "4.2°C")
	assert.NotContains(t, page, `class="error"`)
}

func TestPage_LocationForm(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"status": {"denied"}}
	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookieFrom(t, resp))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Failed to retrieve location.")
}

func TestSessionFor_InvalidCookieGetsFreshSession(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/session", "", &http.Cookie{Name: sessionCookie, Value: "not-a-uuid"})
	cookie := sessionCookieFrom(t, resp)
	assert.NotEqual(t, "not-a-uuid", cookie.Value)
}
