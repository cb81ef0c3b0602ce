package occupancy

import (
	"quietride.org/internal/appconf"
)

// Thresholds are the inclusive upper bounds of very_comfortable, comfortable and crowded.
// Anything above the last bound is very_crowded.
type Thresholds struct {
	Count [3]int
	Rate  [3]float64
}

// DefaultThresholds are the bounds for a standard 70-passenger bus.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Count: [3]int{20, 40, 60},
		Rate:  [3]float64{0.30, 0.60, 0.85},
	}
}

func bandFor(v float64, bounds [3]float64) ComfortBand {
	switch {
	case v <= bounds[0]:
		return VeryComfortable
	case v <= bounds[1]:
		return Comfortable
	case v <= bounds[2]:
		return Crowded
	default:
		return VeryCrowded
	}
}

// Classifier maps passenger loads to comfort bands, with optional per-route count bounds.
type Classifier struct {
	defaults Thresholds
	routes   map[string]Thresholds
}

func NewClassifier(defaults Thresholds) *Classifier {
	return &Classifier{
		defaults: defaults,
		routes:   make(map[string]Thresholds),
	}
}

// NewClassifierFromConfig builds a classifier from the occupancy section and route overrides.
func NewClassifierFromConfig(cfg *appconf.Config) *Classifier {
	defaults := DefaultThresholds()
	if len(cfg.Occupancy.CountThresholds) == 3 {
		for i, v := range cfg.Occupancy.CountThresholds {
			defaults.Count[i] = v
		}
	}
	if len(cfg.Occupancy.RateThresholds) == 3 {
		copy(defaults.Rate[:], cfg.Occupancy.RateThresholds)
	}

	c := NewClassifier(defaults)
	for _, r := range cfg.Routes {
		if len(r.CountThresholds) == 3 {
			t := defaults
			for i, v := range r.CountThresholds {
				t.Count[i] = v
			}
			c.SetRouteThresholds(r.ID, t)
		}
	}
	return c
}

// SetRouteThresholds overrides the bounds for one route. Not safe for use once the
// classifier is shared between goroutines.
func (c *Classifier) SetRouteThresholds(route string, t Thresholds) {
	c.routes[route] = t
}

// Thresholds returns the bounds in force for route.
func (c *Classifier) Thresholds(route string) Thresholds {
	if t, ok := c.routes[route]; ok {
		return t
	}
	return c.defaults
}

// ClassifyCount bands an absolute passenger count. Values on a bound fall in the lower band.
func (c *Classifier) ClassifyCount(route string, passengers float64) ComfortBand {
	t := c.Thresholds(route).Count
	return bandFor(passengers, [3]float64{float64(t[0]), float64(t[1]), float64(t[2])})
}

// ClassifyRate bands an occupancy rate (passengers / capacity).
func (c *Classifier) ClassifyRate(route string, rate float64) ComfortBand {
	return bandFor(rate, c.Thresholds(route).Rate)
}

// Classify uses the occupancy rate when capacity is known and the count bounds otherwise.
func (c *Classifier) Classify(route string, passengers float64, capacity int) ComfortBand {
	if capacity > 0 {
		return c.ClassifyRate(route, passengers/float64(capacity))
	}
	return c.ClassifyCount(route, passengers)
}
