// Package forecast combines a baseline expectation with real-time signals into a
// single congestion forecast.
package forecast

import (
	"math"
	"sort"
	"strings"

	"quietride.org/internal/appconf"
	"quietride.org/internal/signals"
)

// DominantBaseline is reported when no signal moves the forecast.
const DominantBaseline = "baseline"

// Baseline is the historical expectation for the bucket containing now.
type Baseline struct {
	Expected       float64
	NormalCapacity float64
}

// Forecast is the blended congestion estimate. PredictedMultiplier is relative to a
// normally loaded bus (1.0).
type Forecast struct {
	PredictedMultiplier float64 `json:"predicted_congestion"`
	Confidence          float64 `json:"confidence"`
	BasePrediction      float64 `json:"base_prediction"`
	WeatherImpact       float64 `json:"weather_impact"`
	TrafficImpact       float64 `json:"traffic_impact"`
	EventImpact         float64 `json:"event_impact"`
	Explanation         string  `json:"explanation"`
	Dominant            string  `json:"dominant"`
	Recommendation      string  `json:"recommendation"`
}

// AdjustedPassengers converts the multiplier back into an expected passenger count.
func (f Forecast) AdjustedPassengers(normalCapacity float64) float64 {
	return f.PredictedMultiplier * normalCapacity
}

// Blender is pure and safe for concurrent use.
type Blender struct {
	Ceiling           float64
	NeutralConfidence float64
}

func NewBlender(cfg appconf.ForecastConfig) *Blender {
	return &Blender{
		Ceiling:           cfg.Ceiling,
		NeutralConfidence: cfg.NeutralConfidence,
	}
}

// Blend applies the three signal factors to the baseline multiplier.
func (b *Blender) Blend(base Baseline, weather, traffic, events signals.Signal) Forecast {
	basePrediction := 0.0
	if base.NormalCapacity > 0 && base.Expected > 0 {
		basePrediction = base.Expected / base.NormalCapacity
	}

	predicted := basePrediction * nonNegative(weather.ImpactFactor) * nonNegative(traffic.ImpactFactor) * nonNegative(events.ImpactFactor)
	if b.Ceiling > 0 && predicted > b.Ceiling {
		predicted = b.Ceiling
	}

	all := []signals.Signal{weather, traffic, events}
	active := make([]signals.Signal, 0, len(all))
	var weighted, weights float64
	for _, s := range all {
		dev := s.Deviation()
		if dev == 0 || math.IsNaN(dev) {
			continue
		}
		weighted += s.Confidence * dev
		weights += dev
		active = append(active, s)
	}

	confidence := b.NeutralConfidence
	if weights > 0 {
		confidence = weighted / weights
	}

	// Stable sort keeps weather, traffic, events order for equal deviations.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Deviation() > active[j].Deviation()
	})

	f := Forecast{
		PredictedMultiplier: predicted,
		Confidence:          confidence,
		BasePrediction:      basePrediction,
		WeatherImpact:       weather.ImpactFactor,
		TrafficImpact:       traffic.ImpactFactor,
		EventImpact:         events.ImpactFactor,
		Explanation:         explain(active),
		Dominant:            DominantBaseline,
		Recommendation:      Recommendation(predicted),
	}
	if len(active) > 0 {
		f.Dominant = string(active[0].Source)
	}
	return f
}

func explain(active []signals.Signal) string {
	if len(active) == 0 {
		return "based on historical ridership"
	}
	parts := make([]string, 0, len(active))
	for _, s := range active {
		if s.Explanation != "" {
			parts = append(parts, s.Explanation)
		}
	}
	if len(parts) == 0 {
		return "based on historical ridership"
	}
	return strings.Join(parts, "; ")
}

// Recommendation maps a congestion multiplier to rider advice.
func Recommendation(multiplier float64) string {
	switch {
	case multiplier < 0.4:
		return "very quiet, now is the best time"
	case multiplier < 0.7:
		return "moderate, a good time to travel"
	case multiplier < 1.2:
		return "busy, avoid if you can"
	default:
		return "very crowded, travel at another time"
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
