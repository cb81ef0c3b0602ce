package signals

import (
	"context"
	"fmt"
	"math"
	"time"

	"quietride.org/internal/utils"
)

// Source names a real-time signal.
type Source string

const (
	Weather Source = "weather"
	Traffic Source = "traffic"
	Events  Source = "events"
)

// Signal is a normalized real-time input: a multiplicative impact on ridership and
// how much that impact should be trusted.
type Signal struct {
	Source       Source  `json:"source"`
	ImpactFactor float64 `json:"impact_factor"`
	Confidence   float64 `json:"confidence"`
	Explanation  string  `json:"explanation"`
	// Details carries source specific display data, e.g. *WeatherDetails.
	Details any `json:"details,omitempty"`
}

// Neutral is the signal used whenever a source cannot be read in time.
func Neutral(source Source) Signal {
	return Signal{
		Source:       source,
		ImpactFactor: 1.0,
		Confidence:   0.0,
		Explanation:  fmt.Sprintf("%s unavailable", source),
	}
}

// Deviation is how far the signal claims ridership moves away from normal.
func (s Signal) Deviation() float64 {
	return math.Abs(s.ImpactFactor - 1.0)
}

// Reported is false when the source could not be read and the signal is the
// stand-in from Neutral.
func (s Signal) Reported() bool {
	return s.Details != nil || s != Neutral(s.Source)
}

// IsNeutral reports whether the signal has no effect on a forecast.
func (s Signal) IsNeutral() bool {
	return s.Deviation() == 0
}

// RouteArea is the part of a route's configuration adapters need.
type RouteArea struct {
	ID    string
	Path  []utils.LatLon
	Roads []string
}

// Request is the context of one adapter fetch.
type Request struct {
	Route RouteArea
	Now   time.Time
	// Cache deduplicates upstream calls within one composer invocation. May be nil.
	Cache *RequestCache
}

// Adapter fetches and normalizes one real-time source. Fetch never fails: on timeout
// or upstream error it returns Neutral(Source()).
type Adapter interface {
	Source() Source
	Fetch(ctx context.Context, req Request) Signal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
