package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quietride.org/internal/baseline"
	"quietride.org/internal/forecast"
	"quietride.org/internal/livefeed"
	"quietride.org/internal/logging"
	"quietride.org/internal/occupancy"
	"quietride.org/internal/quietwindow"
	"quietride.org/internal/signals"
)

const noServiceText = "no service at this time"

// Unified is the top-line advice: the worse of the current bucket and the best live bus.
type Unified struct {
	Band    *occupancy.ComfortBand `json:"band,omitempty"`
	Action  string                 `json:"action"`
	Reason  string                 `json:"reason"`
	Color   string                 `json:"color"`
	BestBus *BusView               `json:"best_bus,omitempty"`
}

// Recommendation is the full answer for one route.
type Recommendation struct {
	Route        string             `json:"route"`
	RouteName    string             `json:"route_name,omitempty"`
	GeneratedAt  time.Time          `json:"generated_at"`
	DayType      baseline.DayType   `json:"day_type"`
	Operating    bool               `json:"operating"`
	Unified      Unified            `json:"unified"`
	Forecast     forecast.Forecast  `json:"forecast"`
	Signals      []signals.Signal   `json:"signals"`
	QuietWindows quietwindow.Report `json:"quiet_windows"`
	Buses        RouteBuses         `json:"buses"`
	ComfortStats ComfortStats       `json:"comfort_stats"`
}

// Signal returns the signal of one source; every Recommendation carries all three.
func (r *Recommendation) Signal(source signals.Source) signals.Signal {
	for _, s := range r.Signals {
		if s.Source == source {
			return s
		}
	}
	return signals.Neutral(source)
}

// Compose produces the complete recommendation for route.
func (c *Composer) Compose(ctx context.Context, routeID string) (*Recommendation, error) {
	return c.compose(ctx, routeID, true)
}

// Forecast is Compose without the live bus feed.
func (c *Composer) Forecast(ctx context.Context, routeID string) (*Recommendation, error) {
	return c.compose(ctx, routeID, false)
}

func (c *Composer) compose(ctx context.Context, routeID string, withFeed bool) (*Recommendation, error) {
	start := time.Now()

	route, err := c.route(routeID)
	if err != nil {
		return nil, err
	}
	now := c.Now()
	dayType := baseline.DayTypeFor(now)
	minute := baseline.MinuteOfDay(now)

	curve, err := c.baseline.Curve(route.ID, dayType)
	if err != nil {
		return nil, err
	}

	g := c.gather(ctx, now, c.areas[route.ID], c.adapters, withFeed)
	weather, traffic, events := g.signal(signals.Weather), g.signal(signals.Traffic), g.signal(signals.Events)

	point, operating := curve.At(minute)
	fc := c.blender.Blend(forecast.Baseline{
		Expected:       point.ExpectedPassengers,
		NormalCapacity: route.NormalCapacity,
	}, weather, traffic, events)
	if !operating {
		fc.Explanation, fc.Recommendation = noServiceText, noServiceText
	}

	input := quietwindow.Input{
		Route:          route.ID,
		DayType:        dayType,
		Points:         curve.Points,
		NowMinute:      minute,
		NormalCapacity: route.NormalCapacity,
		Capacity:       route.Capacity,
	}
	if operating {
		input.Forecast = &fc
	}
	report := c.finder.Find(input)

	buses := c.routeBuses(route.ID, livefeed.ForRoute(g.readings, route.ID))

	rec := &Recommendation{
		Route:        route.ID,
		RouteName:    route.Name,
		GeneratedAt:  now,
		DayType:      dayType,
		Operating:    operating,
		Forecast:     fc,
		Signals:      []signals.Signal{weather, traffic, events},
		QuietWindows: report,
		Buses:        buses,
		ComfortStats: comfortStats(buses.Buses),
	}
	rec.Unified = unify(report, buses)

	logging.LogOperation(c.logger, "recommendation_composed",
		slog.String("route", route.ID),
		slog.Float64("predicted_congestion", fc.PredictedMultiplier),
		slog.String("dominant", fc.Dominant),
		slog.Int("live_buses", len(buses.Buses)),
		slog.Duration("duration", time.Since(start)))

	return rec, nil
}

// unify takes the worst band across the current bucket and the best live bus option.
func unify(report quietwindow.Report, buses RouteBuses) Unified {
	best := buses.best()

	var worst *occupancy.ComfortBand
	if report.CurrentStatus.Operating && report.CurrentStatus.Band != nil {
		b := *report.CurrentStatus.Band
		worst = &b
	}
	if best != nil && best.Comfort != nil {
		b := *best.Comfort
		if worst != nil {
			b = occupancy.Worse(*worst, b)
		}
		worst = &b
	}

	u := Unified{Band: worst, BestBus: best}
	next := report.NextQuietTime
	switch {
	case worst == nil && !next.Found:
		u.Action, u.Reason, u.Color = "not enough data", noServiceText, "gray"
	case worst != nil && worst.IsQuiet():
		u.Action, u.Color = "board now", worst.Color()
		u.Reason = fmt.Sprintf("%s right now", worst)
		if best != nil {
			u.Reason = fmt.Sprintf("%s, next bus in %d min with about %.0f passengers", worst, best.ArrivalETA, best.Passengers)
		}
	case next.Found && next.WaitMinutes > 0 && next.WaitMinutes <= quietwindow.MaxWaitMinutes:
		u.Action = fmt.Sprintf("wait %d minutes", next.WaitMinutes)
		u.Reason = fmt.Sprintf("%s from %s", *next.Band, next.Time)
		u.Color = "yellow"
	default:
		u.Action, u.Color = "travel at another time", "red"
		u.Reason = quietwindow.NoQuietWindowReason
		if next.Found && next.WaitMinutes > 0 {
			u.Reason = fmt.Sprintf("next quiet time is %s", next.Time)
		} else if worst != nil {
			u.Reason = fmt.Sprintf("live buses are %s", worst)
		}
	}
	return u
}
