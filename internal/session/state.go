package session

import (
	"github.com/i474232898/weather-now/internal/weather"
)

// State is the per-session UI state. After a completed lookup exactly one of
// Result and Error is set; Loading is true only while a lookup is in flight.
type State struct {
	Query           string               `json:"query"`
	Result          *weather.View        `json:"result,omitempty"`
	Error           string               `json:"error,omitempty"`
	Loading         bool                 `json:"isLoading"`
	LastCoordinates *weather.Coordinates `json:"lastCoordinates,omitempty"`
}

// Theme is the CSS class derived from the result, or "" without one.
func (s State) Theme() string {
	if s.Result == nil {
		return ""
	}
	return s.Result.Category().Theme()
}

// Event is an input to the state machine.
type Event interface {
	isEvent()
}

// QueryChanged records new input text.
type QueryChanged struct{ Query string }

// Rejected is a guard failure: the lookup never enters Loading.
type Rejected struct{ Message string }

// Started enters Loading and clears the previous outcome.
type Started struct{}

// Located records the coordinates the lookup is using.
type Located struct{ Coordinates weather.Coordinates }

// Succeeded settles the lookup with a result.
type Succeeded struct{ View weather.View }

// Failed settles the lookup with a user-facing message.
type Failed struct{ Message string }

func (QueryChanged) isEvent() {}
func (Rejected) isEvent()     {}
func (Started) isEvent()      {}
func (Located) isEvent()      {}
func (Succeeded) isEvent()    {}
func (Failed) isEvent()       {}

// Apply returns the state that follows s after ev. It never mutates s.
func Apply(s State, ev Event) State {
	switch e := ev.(type) {
	case QueryChanged:
		s.Query = e.Query
	case Rejected:
		s.Result = nil
		s.Error = e.Message
		s.Loading = false
	case Started:
		s.Result = nil
		s.Error = ""
		s.Loading = true
	case Located:
		c := e.Coordinates
		s.LastCoordinates = &c
	case Succeeded:
		v := e.View
		s.Result = &v
		s.Error = ""
		s.Loading = false
	case Failed:
		s.Result = nil
		s.Error = e.Message
		s.Loading = false
	}
	return s
}
