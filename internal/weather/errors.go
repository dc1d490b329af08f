package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a place query is blank after trimming.
	ErrEmptyQuery = errors.New("empty place query")
	// ErrNotFound is returned when forward geocoding yields no candidates.
	ErrNotFound = errors.New("place not found")
	// ErrDataUnavailable is returned when a forecast response has no current conditions.
	ErrDataUnavailable = errors.New("weather data not available")
	// ErrLocationUnsupported is returned when no device location capability exists.
	ErrLocationUnsupported = errors.New("geolocation not supported")
	// ErrLocationDenied is returned when a one-shot position fix fails.
	ErrLocationDenied = errors.New("location request failed")
)

// TransportError reports an upstream call that did not complete with a
// success status. Message is safe to show to a user.
type TransportError struct {
	Message    string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Message, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
