package baseline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrRouteNotFound is returned when no curve is loaded for a route.
	ErrRouteNotFound = errors.New("route not found")
	// ErrNoService is returned for minutes outside a route's operating hours.
	ErrNoService = errors.New("no service at this time")
	// ErrInvalidCurve wraps every load-time validation failure.
	ErrInvalidCurve = errors.New("invalid baseline curve")
)

// Point is the expected load of one bucket.
type Point struct {
	Bucket             Bucket  `json:"bucket"`
	ExpectedPassengers float64 `json:"expected_passengers"`
}

// Curve is the ordered, contiguous expected load of a route over its operating hours.
// A Curve is never modified after it has been validated.
type Curve struct {
	Route   string
	DayType DayType
	Points  []Point
}

// OpeningMinute is the start of the first operating bucket.
func (c *Curve) OpeningMinute() int {
	return c.Points[0].Bucket.StartMinute
}

// ClosingMinute is the end of the last operating bucket.
func (c *Curve) ClosingMinute() int {
	return c.Points[len(c.Points)-1].Bucket.EndMinute()
}

// At returns the point for the bucket containing minute.
func (c *Curve) At(minute int) (Point, bool) {
	start := BucketStart(minute)
	if len(c.Points) == 0 || start < c.OpeningMinute() || start >= c.ClosingMinute() {
		return Point{}, false
	}
	return c.Points[(start-c.OpeningMinute())/BucketWidth], true
}

type curveKey struct {
	route   string
	dayType DayType
}

type rawPoint struct {
	route       string
	dayType     DayType
	startMinute int
	passengers  float64
}

// Snapshot is an immutable set of curves loaded from one source.
type Snapshot struct {
	Source   string
	LoadedAt time.Time
	curves   map[curveKey]*Curve
	routes   []string
}

// Curves returns every curve ordered by route then day type.
func (s *Snapshot) Curves() []Curve {
	out := make([]Curve, 0, len(s.curves))
	for _, c := range s.curves {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Route != out[j].Route {
			return out[i].Route < out[j].Route
		}
		return out[i].DayType < out[j].DayType
	})
	return out
}

func (s *Snapshot) curve(route string, dayType DayType) (*Curve, bool) {
	c, ok := s.curves[curveKey{route, dayType}]
	return c, ok
}

// NewSnapshot validates curves and builds a snapshot from them.
func NewSnapshot(source string, curves []Curve) (*Snapshot, error) {
	var raw []rawPoint
	for _, c := range curves {
		for _, p := range c.Points {
			raw = append(raw, rawPoint{
				route:       c.Route,
				dayType:     c.DayType,
				startMinute: p.Bucket.StartMinute,
				passengers:  p.ExpectedPassengers,
			})
		}
	}
	return buildSnapshot(source, raw)
}

func buildSnapshot(source string, raw []rawPoint) (*Snapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s contains no buckets", ErrInvalidCurve, source)
	}

	grouped := make(map[curveKey][]rawPoint)
	for _, p := range raw {
		if p.route == "" {
			return nil, fmt.Errorf("%w: bucket without route", ErrInvalidCurve)
		}
		if p.dayType != Weekday && p.dayType != Weekend {
			return nil, fmt.Errorf("%w: route %s has unknown day type %q", ErrInvalidCurve, p.route, p.dayType)
		}
		key := curveKey{p.route, p.dayType}
		grouped[key] = append(grouped[key], p)
	}

	snap := &Snapshot{
		Source:   source,
		LoadedAt: time.Now(),
		curves:   make(map[curveKey]*Curve, len(grouped)),
	}
	seenRoutes := make(map[string]bool)

	for key, points := range grouped {
		curve, err := buildCurve(key, points)
		if err != nil {
			return nil, err
		}
		snap.curves[key] = curve
		if !seenRoutes[key.route] {
			seenRoutes[key.route] = true
			snap.routes = append(snap.routes, key.route)
		}
	}
	sort.Strings(snap.routes)

	return snap, nil
}

func buildCurve(key curveKey, points []rawPoint) (*Curve, error) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].startMinute < points[j].startMinute
	})

	curve := &Curve{
		Route:   key.route,
		DayType: key.dayType,
		Points:  make([]Point, 0, len(points)),
	}

	for i, p := range points {
		switch {
		case p.startMinute < 0 || p.startMinute >= MinutesPerDay:
			return nil, fmt.Errorf("%w: %s/%s bucket %d outside the day", ErrInvalidCurve, key.route, key.dayType, p.startMinute)
		case p.startMinute%BucketWidth != 0:
			return nil, fmt.Errorf("%w: %s/%s bucket %s not aligned to %d minutes",
				ErrInvalidCurve, key.route, key.dayType, FormatMinute(p.startMinute), BucketWidth)
		case p.passengers < 0 || math.IsNaN(p.passengers) || math.IsInf(p.passengers, 0):
			return nil, fmt.Errorf("%w: %s/%s bucket %s has invalid load %v",
				ErrInvalidCurve, key.route, key.dayType, FormatMinute(p.startMinute), p.passengers)
		}

		if i > 0 {
			prev := points[i-1].startMinute
			if p.startMinute == prev {
				return nil, fmt.Errorf("%w: %s/%s bucket %s defined twice",
					ErrInvalidCurve, key.route, key.dayType, FormatMinute(p.startMinute))
			}
			if p.startMinute != prev+BucketWidth {
				return nil, fmt.Errorf("%w: %s/%s gap between %s and %s",
					ErrInvalidCurve, key.route, key.dayType, FormatMinute(prev), FormatMinute(p.startMinute))
			}
		}

		curve.Points = append(curve.Points, Point{
			Bucket:             Bucket{Route: key.route, DayType: key.dayType, StartMinute: p.startMinute},
			ExpectedPassengers: p.passengers,
		})
	}

	return curve, nil
}
