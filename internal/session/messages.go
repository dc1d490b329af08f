package session

import (
	"errors"

	"github.com/i474232898/weather-now/internal/weather"
)

// User-facing messages.
const (
	MsgEmptyQuery          = "Please enter a place name"
	MsgNotFound            = "Place not found"
	MsgDataUnavailable     = "Weather data not available"
	MsgLocationUnsupported = "Geolocation is not supported by your browser."
	MsgLocationDenied      = "Failed to retrieve location."
	MsgUnexpected          = "Unexpected error occurred"
)

// UserMessage converts any lookup failure into the single string shown to the user.
func UserMessage(err error) string {
	var te *weather.TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, weather.ErrEmptyQuery):
		return MsgEmptyQuery
	case errors.Is(err, weather.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, weather.ErrDataUnavailable):
		return MsgDataUnavailable
	case errors.Is(err, weather.ErrLocationUnsupported):
		return MsgLocationUnsupported
	case errors.Is(err, weather.ErrLocationDenied):
		return MsgLocationDenied
	case errors.As(err, &te) && te.Message != "":
		return te.Message
	default:
		return MsgUnexpected
	}
}
