package weather

import (
	"fmt"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FallbackName is the display name used when a reverse lookup yields nothing.
func (c Coordinates) FallbackName() string {
	return fmt.Sprintf("Lat: %.2f, Lon: %.2f", c.Latitude, c.Longitude)
}

// Place is a single geocoding candidate as returned by a Geocoder.
// Admin1 and Country may be empty.
type Place struct {
	Name        string      `json:"name"`
	Admin1      string      `json:"admin1,omitempty"`
	Country     string      `json:"country,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// DisplayName joins name, region and country with ", ", skipping empty parts.
func (p Place) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Admin1, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// ResolvedLocation is a place name ready for display plus the coordinates it
// was resolved from (or to).
type ResolvedLocation struct {
	DisplayName string      `json:"displayName"`
	Coordinates Coordinates `json:"coordinates"`
}

// CurrentConditions is the instantaneous snapshot reported by the forecast service.
type CurrentConditions struct {
	Temperature     float64 `json:"temperature"`   // °C
	WindSpeed       float64 `json:"windspeed"`     // km/h
	WindDirection   float64 `json:"winddirection"` // degrees
	WeatherCode     int     `json:"weathercode"`
	ObservationTime string  `json:"time"`
}

// View is what the user sees after a successful lookup.
type View struct {
	Location string `json:"location"`
	CurrentConditions
}

// NewView combines a resolved location name with current conditions.
func NewView(location string, cc CurrentConditions) View {
	return View{Location: location, CurrentConditions: cc}
}

// Category returns the presentation category of the view's weather code.
func (v View) Category() Category {
	return Classify(v.WeatherCode)
}
