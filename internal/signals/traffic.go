package signals

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"quietride.org/internal/appconf"
	"quietride.org/internal/logging"
)

// TrafficSnapshot is the per-segment speed payload served by the traffic collaborator.
type TrafficSnapshot struct {
	Segments []TrafficSegment `json:"segments" yaml:"segments"`
}

type TrafficSegment struct {
	Name        string  `json:"name" yaml:"name"`
	SpeedKmh    float64 `json:"speed_kmh" yaml:"speed_kmh"`
	FreeFlowKmh float64 `json:"free_flow_kmh" yaml:"free_flow_kmh"`
}

// TrafficLevel is the congestion state of one road segment.
type TrafficLevel string

const (
	LevelSmooth        TrafficLevel = "smooth"
	LevelNormal        TrafficLevel = "normal"
	LevelCongested     TrafficLevel = "congested"
	LevelVeryCongested TrafficLevel = "very_congested"
)

// Impact is the ridership multiplier of a road in this state. Congested roads push
// drivers onto buses; smooth roads pull riders into cars.
func (l TrafficLevel) Impact() float64 {
	switch l {
	case LevelSmooth:
		return 0.9
	case LevelCongested:
		return 1.2
	case LevelVeryCongested:
		return 1.4
	default:
		return 1.0
	}
}

// LevelFor classifies a segment by its speed relative to free flow.
func LevelFor(speedKmh, freeFlowKmh float64) TrafficLevel {
	if freeFlowKmh <= 0 {
		return LevelNormal
	}
	ratio := speedKmh / freeFlowKmh
	switch {
	case ratio >= 0.8:
		return LevelSmooth
	case ratio >= 0.5:
		return LevelNormal
	case ratio >= 0.3:
		return LevelCongested
	default:
		return LevelVeryCongested
	}
}

type RoadStatus struct {
	Name   string       `json:"name"`
	Level  TrafficLevel `json:"level"`
	Impact float64      `json:"impact"`
}

// TrafficDetails are the display fields of a traffic signal.
type TrafficDetails struct {
	Roads          []RoadStatus `json:"roads"`
	CongestedRoads []string     `json:"congested_roads"`
	SmoothRoads    []string     `json:"smooth_roads"`
	Recommendation string       `json:"recommendation"`
}

// TrafficAdapter turns road segment speeds near a route into a ridership impact.
type TrafficAdapter struct {
	cfg    appconf.TrafficConfig
	client *http.Client
	logger *slog.Logger
}

func NewTrafficAdapter(cfg appconf.TrafficConfig, client *http.Client, logger *slog.Logger) *TrafficAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrafficAdapter{
		cfg:    cfg,
		client: newHTTPClient(client),
		logger: logger.With(slog.String("component", "traffic_adapter")),
	}
}

func (a *TrafficAdapter) Source() Source { return Traffic }

func (a *TrafficAdapter) Fetch(ctx context.Context, req Request) Signal {
	if a.cfg.URL == "" {
		return Neutral(Traffic)
	}

	ctx, cancel := withTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	snap, err := fetchPayload[TrafficSnapshot](ctx, req, a.client, string(Traffic), a.cfg.URL,
		authHeaders(a.cfg.AuthHeaderKey, a.cfg.AuthHeaderValue))
	if err != nil {
		logging.LogUpstreamFailure(a.logger, string(Traffic), err,
			slog.String("url", a.cfg.URL), slog.String("route", req.Route.ID))
		return Neutral(Traffic)
	}

	return TrafficSignal(*snap, req.Route.Roads, a.cfg)
}

// TrafficSignal multiplies the impact of every relevant segment and clamps the product.
// roads selects the relevant segments by name; empty means every segment.
func TrafficSignal(snap TrafficSnapshot, roads []string, cfg appconf.TrafficConfig) Signal {
	wanted := make(map[string]bool, len(roads))
	for _, r := range roads {
		wanted[strings.ToLower(r)] = true
	}

	details := &TrafficDetails{
		CongestedRoads: []string{},
		SmoothRoads:    []string{},
	}
	factor := 1.0
	seen := make(map[string]bool)

	for _, seg := range snap.Segments {
		key := strings.ToLower(seg.Name)
		if seg.Name == "" || seen[key] || (len(wanted) > 0 && !wanted[key]) {
			continue
		}
		seen[key] = true

		level := LevelFor(seg.SpeedKmh, seg.FreeFlowKmh)
		factor *= level.Impact()
		details.Roads = append(details.Roads, RoadStatus{Name: seg.Name, Level: level, Impact: level.Impact()})

		switch level {
		case LevelCongested, LevelVeryCongested:
			details.CongestedRoads = append(details.CongestedRoads, seg.Name)
		case LevelSmooth:
			details.SmoothRoads = append(details.SmoothRoads, seg.Name)
		}
	}

	if len(details.Roads) == 0 {
		return Signal{
			Source:       Traffic,
			ImpactFactor: 1.0,
			Confidence:   0,
			Explanation:  "no traffic data for this route",
			Details:      details,
		}
	}

	expected := len(wanted)
	if expected == 0 {
		expected = len(details.Roads)
	}

	factor = round2(clamp(factor, cfg.MinImpact, cfg.MaxImpact))
	details.Recommendation = trafficRecommendation(factor, details.CongestedRoads, details.SmoothRoads)

	return Signal{
		Source:       Traffic,
		ImpactFactor: factor,
		Confidence:   round2(0.9 * float64(len(details.Roads)) / float64(expected)),
		Explanation:  trafficExplanation(factor, details),
		Details:      details,
	}
}

func trafficExplanation(factor float64, d *TrafficDetails) string {
	switch {
	case factor > 1:
		return fmt.Sprintf("congestion on %s pushes drivers onto buses", strings.Join(d.CongestedRoads, ", "))
	case factor < 1:
		return fmt.Sprintf("smooth roads (%s) draw riders into cars", strings.Join(d.SmoothRoads, ", "))
	default:
		return "road traffic is normal"
	}
}

func trafficRecommendation(factor float64, congested, smooth []string) string {
	switch {
	case factor >= 1.3:
		return fmt.Sprintf("heavy congestion (%s), buses will be much busier", strings.Join(congested, ", "))
	case factor >= 1.1:
		return fmt.Sprintf("some roads congested (%s), buses busier than usual", strings.Join(congested, ", "))
	case factor <= 0.9:
		return fmt.Sprintf("roads clear (%s), buses quieter than usual", strings.Join(smooth, ", "))
	default:
		return "road conditions normal, usual pattern expected"
	}
}
