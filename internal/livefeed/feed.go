// Package livefeed reads upcoming arrivals and live passenger loads from GTFS-realtime feeds.
package livefeed

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"

	"quietride.org/internal/appconf"
	"quietride.org/internal/logging"
	"quietride.org/internal/signals"
)

// DefaultCapacity is used for routes that do not configure one.
const DefaultCapacity = 70

// statusShare is the representative load of each GTFS-rt occupancy status as a share
// of capacity. The middle values match 20, 38, 54 and 66 riders on a 70-seat bus.
var statusShare = map[string]float64{
	"EMPTY":                      0.0,
	"MANY_SEATS_AVAILABLE":       20.0 / 70,
	"FEW_SEATS_AVAILABLE":        38.0 / 70,
	"STANDING_ROOM_ONLY":         54.0 / 70,
	"CRUSHED_STANDING_ROOM_ONLY": 66.0 / 70,
	"FULL":                       1.0,
	"NOT_ACCEPTING_PASSENGERS":   1.0,
}

// BusReading is one upcoming arrival of a route at its configured stop.
type BusReading struct {
	Route           string    `json:"route"`
	RouteName       string    `json:"route_name,omitempty"`
	Direction       string    `json:"direction,omitempty"`
	TripID          string    `json:"trip_id"`
	VehicleID       string    `json:"vehicle_id,omitempty"`
	StopID          string    `json:"stop_id,omitempty"`
	Order           int       `json:"order"`
	ArrivalTime     time.Time `json:"arrival_time"`
	ArrivalETA      int       `json:"arrival_minutes"`
	Passengers      float64   `json:"passengers"`
	PassengersKnown bool      `json:"passengers_known"`
	Capacity        int       `json:"capacity"`
}

// OccupancyRate is passengers over capacity, or 0 when either is unknown.
func (r BusReading) OccupancyRate() float64 {
	if !r.PassengersKnown || r.Capacity <= 0 {
		return 0
	}
	return r.Passengers / float64(r.Capacity)
}

// Feed is safe for concurrent use.
type Feed struct {
	cfg    appconf.LiveFeedConfig
	routes []appconf.Route
	client *http.Client
	logger *slog.Logger
}

func NewFeed(cfg appconf.LiveFeedConfig, routes []appconf.Route, client *http.Client, logger *slog.Logger) *Feed {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "livefeed"))
	}
	return &Feed{cfg: cfg, routes: routes, client: client, logger: logger}
}

// Enabled reports whether a trip updates feed is configured.
func (f *Feed) Enabled() bool {
	return f != nil && f.cfg.Enabled()
}

// Readings returns the next arrivals of every configured route, ordered by route then
// arrival. Upstream failures are logged and yield no readings.
func (f *Feed) Readings(ctx context.Context, now time.Time, cache *signals.RequestCache) []BusReading {
	if !f.Enabled() {
		return nil
	}

	ctx, cancel := timeoutContext(ctx, f.cfg.Timeout)
	defer cancel()

	trips, vehicles, err := f.fetchBoth(ctx, cache)
	if err != nil {
		logging.LogUpstreamFailure(f.logger, "live_feed", err,
			slog.String("url", f.cfg.TripUpdatesURL))
		return nil
	}

	return BuildReadings(trips, vehicles, f.routes, now, f.cfg.MaxArrivals)
}

// BuildReadings joins trip updates with vehicle occupancy for the configured routes.
func BuildReadings(trips []gtfs.Trip, vehicles []gtfs.Vehicle, routes []appconf.Route, now time.Time, maxArrivals int) []BusReading {
	vehiclesByTrip := make(map[string]*gtfs.Vehicle, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		if v.Trip == nil || v.Trip.ID.ID == "" {
			continue
		}
		if prev, ok := vehiclesByTrip[v.Trip.ID.ID]; ok && hasOccupancy(prev) && !hasOccupancy(v) {
			continue
		}
		vehiclesByTrip[v.Trip.ID.ID] = v
	}

	byRoute := make(map[string][]BusReading, len(routes))
	for _, trip := range trips {
		route, ok := findRoute(routes, trip.ID.RouteID)
		if !ok {
			continue
		}
		arrival, stopID, ok := nextArrival(trip, route.StopID, now)
		if !ok {
			continue
		}

		capacity := route.Capacity
		if capacity <= 0 {
			capacity = DefaultCapacity
		}
		reading := BusReading{
			Route:       route.ID,
			RouteName:   route.Name,
			Direction:   route.Direction,
			TripID:      trip.ID.ID,
			StopID:      stopID,
			ArrivalTime: arrival,
			ArrivalETA:  int(math.Round(arrival.Sub(now).Minutes())),
			Capacity:    capacity,
		}
		if v, ok := vehiclesByTrip[trip.ID.ID]; ok {
			if v.ID != nil {
				reading.VehicleID = v.ID.ID
			}
			reading.Passengers, reading.PassengersKnown = passengers(v, capacity)
		}
		byRoute[route.ID] = append(byRoute[route.ID], reading)
	}

	var out []BusReading
	for _, route := range routes {
		readings := byRoute[route.ID]
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].ArrivalTime.Before(readings[j].ArrivalTime)
		})
		if maxArrivals > 0 && len(readings) > maxArrivals {
			readings = readings[:maxArrivals]
		}
		for i := range readings {
			readings[i].Order = i + 1
		}
		out = append(out, readings...)
	}
	return out
}

// ForRoute filters readings down to one route, keeping their order.
func ForRoute(readings []BusReading, route string) []BusReading {
	var out []BusReading
	for _, r := range readings {
		if r.Route == route {
			out = append(out, r)
		}
	}
	return out
}

func findRoute(routes []appconf.Route, id string) (appconf.Route, bool) {
	for _, r := range routes {
		if r.ID == id {
			return r, true
		}
	}
	return appconf.Route{}, false
}

// nextArrival finds the predicted arrival at stopID, or at the first upcoming stop when
// stopID is empty. Arrivals already in the past are skipped.
func nextArrival(trip gtfs.Trip, stopID string, now time.Time) (time.Time, string, bool) {
	for _, stu := range trip.StopTimeUpdates {
		if stu.Arrival == nil || stu.Arrival.Time == nil {
			continue
		}
		sid := ""
		if stu.StopID != nil {
			sid = *stu.StopID
		}
		if stopID != "" && !strings.EqualFold(sid, stopID) {
			continue
		}
		if stu.Arrival.Time.Before(now) {
			if stopID != "" {
				return time.Time{}, "", false
			}
			continue
		}
		return *stu.Arrival.Time, sid, true
	}
	return time.Time{}, "", false
}

func hasOccupancy(v *gtfs.Vehicle) bool {
	return v.OccupancyPercentage != nil || v.OccupancyStatus != nil
}

func passengers(v *gtfs.Vehicle, capacity int) (float64, bool) {
	if v.OccupancyPercentage != nil {
		return math.Round(float64(*v.OccupancyPercentage) / 100 * float64(capacity)), true
	}
	if v.OccupancyStatus != nil {
		if share, ok := statusShare[v.OccupancyStatus.String()]; ok {
			return math.Round(share * float64(capacity)), true
		}
	}
	return 0, false
}

func timeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
