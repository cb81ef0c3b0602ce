package recommend

import (
	"context"
	"math"

	"quietride.org/internal/baseline"
	"quietride.org/internal/livefeed"
	"quietride.org/internal/occupancy"
	"quietride.org/internal/signals"
)

// BusView is a live reading with its derived comfort.
type BusView struct {
	livefeed.BusReading
	OccupancyRate float64                `json:"occupancy_rate"`
	Comfort       *occupancy.ComfortBand `json:"comfort,omitempty"`
	ComfortLabel  string                 `json:"comfort_label,omitempty"`
	Color         string                 `json:"color"`
}

// RouteBuses are the upcoming buses of one route with the first-versus-second advice.
type RouteBuses struct {
	Route          string    `json:"route"`
	Buses          []BusView `json:"buses"`
	Recommendation string    `json:"recommendation"`
}

// best is the known bus with the fewest passengers, earliest first on ties.
func (rb RouteBuses) best() *BusView {
	var best *BusView
	for i := range rb.Buses {
		b := &rb.Buses[i]
		if !b.PassengersKnown {
			continue
		}
		if best == nil || b.Passengers < best.Passengers {
			best = b
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// ComfortStats aggregates live comfort over a set of buses.
type ComfortStats struct {
	Distribution   occupancy.Distribution `json:"distribution"`
	Recommendation string                 `json:"recommendation"`
}

// BusesResult answers a live bus query over one or more routes.
type BusesResult struct {
	Available    bool         `json:"available"`
	Routes       []RouteBuses `json:"routes"`
	ComfortStats ComfortStats `json:"comfort_stats"`
}

func (c *Composer) routeBuses(route string, readings []livefeed.BusReading) RouteBuses {
	rb := RouteBuses{Route: route, Buses: make([]BusView, 0, len(readings))}
	for _, r := range readings {
		v := BusView{BusReading: r, Color: "gray"}
		if r.PassengersKnown {
			band := c.classifier.Classify(route, r.Passengers, r.Capacity)
			v.Comfort = &band
			v.ComfortLabel = band.Label()
			v.Color = band.Color()
			v.OccupancyRate = math.Round(r.OccupancyRate()*1000) / 1000
		}
		rb.Buses = append(rb.Buses, v)
	}

	var first, second occupancy.BusLoad
	if len(rb.Buses) > 0 {
		first = busLoad(rb.Buses[0])
	}
	if len(rb.Buses) > 1 {
		second = busLoad(rb.Buses[1])
	}
	rb.Recommendation = c.classifier.NextBusAdvice(route, first, second)
	return rb
}

func busLoad(b BusView) occupancy.BusLoad {
	return occupancy.BusLoad{Passengers: b.Passengers, Capacity: b.Capacity, Known: b.PassengersKnown}
}

func comfortStats(buses []BusView) ComfortStats {
	bands := make([]occupancy.ComfortBand, 0, len(buses))
	for _, b := range buses {
		if b.Comfort != nil {
			bands = append(bands, *b.Comfort)
		}
	}
	d := occupancy.NewDistribution(bands...)
	return ComfortStats{Distribution: d, Recommendation: d.Recommendation()}
}

// Buses returns live buses for the given routes, or for every configured route when
// routes is empty.
func (c *Composer) Buses(ctx context.Context, routes []string) (*BusesResult, error) {
	if len(routes) == 0 {
		for _, r := range c.cfg.Routes {
			routes = append(routes, r.ID)
		}
	}
	for _, id := range routes {
		if _, err := c.route(id); err != nil {
			return nil, err
		}
	}

	readings, ok := c.readings(ctx)
	result := &BusesResult{Available: ok, Routes: make([]RouteBuses, 0, len(routes))}
	var all []BusView
	for _, id := range routes {
		rb := c.routeBuses(id, livefeed.ForRoute(readings, id))
		all = append(all, rb.Buses...)
		result.Routes = append(result.Routes, rb)
	}
	result.ComfortStats = comfortStats(all)
	return result, nil
}

// Headways estimates arrival spacing for every configured route with live buses.
func (c *Composer) Headways(ctx context.Context) []livefeed.Headway {
	readings, _ := c.readings(ctx)
	return livefeed.Headways(readings)
}

// readings fetches the live feed alone under the shared deadline.
func (c *Composer) readings(ctx context.Context) ([]livefeed.BusReading, bool) {
	g := c.gather(ctx, c.Now(), signals.RouteArea{}, nil, true)
	return g.readings, g.feedOK && c.feed.Enabled()
}

// Weather fetches the weather signal alone. Weather does not depend on the route.
func (c *Composer) Weather(ctx context.Context) signals.Signal {
	a, ok := c.adapter(signals.Weather)
	if !ok {
		return signals.Neutral(signals.Weather)
	}
	g := c.gather(ctx, c.Now(), signals.RouteArea{}, []signals.Adapter{a}, false)
	return g.signal(signals.Weather)
}

// RouteInfo describes a configured route.
type RouteInfo struct {
	ID             string             `json:"id"`
	Name           string             `json:"name,omitempty"`
	Direction      string             `json:"direction,omitempty"`
	StopID         string             `json:"stop_id,omitempty"`
	NormalCapacity float64            `json:"normal_capacity"`
	Capacity       int                `json:"capacity,omitempty"`
	Roads          []string           `json:"roads,omitempty"`
	DayTypes       []baseline.DayType `json:"day_types"`
}

// Routes lists configured routes with the day types their baseline covers.
func (c *Composer) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(c.cfg.Routes))
	for _, r := range c.cfg.Routes {
		info := RouteInfo{
			ID:             r.ID,
			Name:           r.Name,
			Direction:      r.Direction,
			StopID:         r.StopID,
			NormalCapacity: r.NormalCapacity,
			Capacity:       r.Capacity,
			Roads:          r.Roads,
			DayTypes:       []baseline.DayType{},
		}
		for _, dt := range []baseline.DayType{baseline.Weekday, baseline.Weekend} {
			if _, err := c.baseline.Curve(r.ID, dt); err == nil {
				info.DayTypes = append(info.DayTypes, dt)
			}
		}
		out = append(out, info)
	}
	return out
}

// BandedPoint is a baseline bucket with its comfort band.
type BandedPoint struct {
	Time       string                `json:"time"`
	Minute     int                   `json:"minute"`
	Passengers float64               `json:"passengers"`
	Band       occupancy.ComfortBand `json:"band"`
}

// BaselineDay returns the route's curve for dayType, or for today when dayType is empty.
func (c *Composer) BaselineDay(routeID string, dayType baseline.DayType) (baseline.DayType, []BandedPoint, error) {
	route, err := c.route(routeID)
	if err != nil {
		return "", nil, err
	}
	if dayType == "" {
		dayType = baseline.DayTypeFor(c.Now())
	}
	points, err := c.baseline.DayRange(route.ID, dayType)
	if err != nil {
		return "", nil, err
	}

	out := make([]BandedPoint, len(points))
	for i, p := range points {
		out[i] = BandedPoint{
			Time:       p.Bucket.Label(),
			Minute:     p.Bucket.StartMinute,
			Passengers: p.ExpectedPassengers,
			Band:       c.classifier.Classify(route.ID, p.ExpectedPassengers, route.Capacity),
		}
	}
	return dayType, out, nil
}

// Snapshot is the loaded baseline, for the debug page.
func (c *Composer) Snapshot() *baseline.Snapshot {
	return c.baseline.Snapshot()
}
