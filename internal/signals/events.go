package signals

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"quietride.org/internal/appconf"
	"quietride.org/internal/logging"
	"quietride.org/internal/utils"
)

// Calendar is the event calendar payload, served over HTTP or kept in a local file.
type Calendar struct {
	Events []CalendarEvent `json:"events" yaml:"events"`
}

// CalendarEvent is one venue event or public holiday.
type CalendarEvent struct {
	Name               string    `json:"name" yaml:"name"`
	Type               string    `json:"type" yaml:"type"`
	Venue              string    `json:"venue" yaml:"venue"`
	Lat                float64   `json:"lat" yaml:"lat"`
	Lon                float64   `json:"lon" yaml:"lon"`
	Start              time.Time `json:"start" yaml:"start"`
	End                time.Time `json:"end" yaml:"end"`
	ExpectedAttendance int       `json:"expected_attendance" yaml:"expected_attendance"`
	// Major marks a long holiday period.
	Major bool `json:"major" yaml:"major"`
	// Impact is a coarse high|medium rating used when attendance is unknown.
	Impact string `json:"impact" yaml:"impact"`
}

const eventTypeHoliday = "holiday"

// IsHoliday reports whether the event is a public holiday rather than a venue event.
func (e CalendarEvent) IsHoliday() bool {
	return strings.EqualFold(e.Type, eventTypeHoliday)
}

// overlaps reports whether the event runs at any time in [from, to].
func (e CalendarEvent) overlaps(from, to time.Time) bool {
	end := e.End
	if end.IsZero() {
		end = e.Start
	}
	return !e.Start.After(to) && !end.Before(from)
}

// MatchedEvent is a calendar event that affects a route, with its individual impact.
type MatchedEvent struct {
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Venue          string    `json:"venue,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Attendance     int       `json:"expected_attendance,omitempty"`
	Major          bool      `json:"major,omitempty"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
	Impact         float64   `json:"impact"`
}

// EventDetails are the display fields of an events signal.
type EventDetails struct {
	Events         []MatchedEvent `json:"events"`
	Recommendation string         `json:"recommendation"`
}

// EventAdapter matches the event calendar against a route's service area and time window.
type EventAdapter struct {
	cfg    appconf.EventsConfig
	client *http.Client
	logger *slog.Logger
}

func NewEventAdapter(cfg appconf.EventsConfig, client *http.Client, logger *slog.Logger) *EventAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventAdapter{
		cfg:    cfg,
		client: newHTTPClient(client),
		logger: logger.With(slog.String("component", "event_adapter")),
	}
}

func (a *EventAdapter) Source() Source { return Events }

func (a *EventAdapter) Fetch(ctx context.Context, req Request) Signal {
	if a.cfg.Source == "" {
		return Neutral(Events)
	}

	ctx, cancel := withTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	cal, err := fetchPayload[Calendar](ctx, req, a.client, string(Events), a.cfg.Source, nil)
	if err != nil {
		logging.LogUpstreamFailure(a.logger, string(Events), err,
			slog.String("source", a.cfg.Source), slog.String("route", req.Route.ID))
		return Neutral(Events)
	}

	return EventSignal(*cal, req.Route, req.Now, a.cfg)
}

// EventSignal multiplies the impact of every event overlapping [now, now+window] that is
// either a holiday or held within the configured radius of the route. With no match the
// factor is exactly 1.0 and no event list is attached.
func EventSignal(cal Calendar, route RouteArea, now time.Time, cfg appconf.EventsConfig) Signal {
	windowEnd := now.Add(cfg.Window)
	var matched []MatchedEvent
	factor := 1.0

	for _, e := range cal.Events {
		if e.Start.IsZero() || !e.overlaps(now, windowEnd) {
			continue
		}

		m := MatchedEvent{
			Name:       utils.SanitizeInput(e.Name),
			Type:       strings.ToLower(e.Type),
			Venue:      utils.SanitizeInput(e.Venue),
			Start:      e.Start,
			End:        e.End,
			Attendance: e.ExpectedAttendance,
			Major:      e.Major,
		}

		if e.IsHoliday() {
			m.Impact = cfg.HolidayFactor
			if e.Major {
				m.Impact = cfg.MajorHolidayFactor
			}
		} else {
			if utils.ValidateCoordinates(e.Lat, e.Lon) != nil || len(route.Path) == 0 {
				continue
			}
			d := utils.DistanceToPathMeters(utils.LatLon{Lat: e.Lat, Lon: e.Lon}, route.Path)
			if d > cfg.RadiusMeters {
				continue
			}
			d = math.Round(d)
			m.DistanceMeters = &d
			m.Impact = venueImpact(e, cfg)
		}

		factor *= m.Impact
		matched = append(matched, m)
	}

	if len(matched) == 0 {
		return Signal{
			Source:       Events,
			ImpactFactor: 1.0,
			Confidence:   0,
			Explanation:  "no events affecting this route",
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return math.Abs(matched[i].Impact-1) > math.Abs(matched[j].Impact-1)
	})

	return Signal{
		Source:       Events,
		ImpactFactor: round2(factor),
		Confidence:   round2(math.Min(0.95, 0.5+0.15*float64(len(matched)))),
		Explanation:  eventExplanation(matched),
		Details: &EventDetails{
			Events:         matched,
			Recommendation: eventRecommendation(matched),
		},
	}
}

// venueImpact grows with attendance up to MaxEventBoost. Events without an attendance
// figure fall back to their coarse impact rating.
func venueImpact(e CalendarEvent, cfg appconf.EventsConfig) float64 {
	if e.ExpectedAttendance > 0 {
		boost := float64(e.ExpectedAttendance) / 10000 * cfg.AttendanceWeight
		return round2(1 + math.Min(boost, cfg.MaxEventBoost))
	}
	switch strings.ToLower(e.Impact) {
	case "high":
		return 1.3
	case "medium":
		return 1.1
	default:
		return 1.0
	}
}

func eventExplanation(matched []MatchedEvent) string {
	parts := make([]string, 0, len(matched))
	for _, m := range matched {
		switch {
		case m.Type == eventTypeHoliday:
			parts = append(parts, fmt.Sprintf("%s holiday lowers ridership", m.Name))
		case m.Venue != "":
			parts = append(parts, fmt.Sprintf("%s at %s", m.Name, m.Venue))
		default:
			parts = append(parts, m.Name)
		}
	}
	return strings.Join(parts, "; ")
}

func eventRecommendation(matched []MatchedEvent) string {
	parts := make([]string, 0, len(matched))
	for _, m := range matched {
		switch {
		case m.Type == eventTypeHoliday && m.Major:
			parts = append(parts, fmt.Sprintf("%s: long holiday, very quiet", m.Name))
		case m.Type == eventTypeHoliday:
			parts = append(parts, fmt.Sprintf("%s: holiday, quiet", m.Name))
		case m.Impact >= 1.3:
			parts = append(parts, fmt.Sprintf("%s: expect crowds", m.Name))
		case m.Impact > 1:
			parts = append(parts, fmt.Sprintf("%s: slightly busier", m.Name))
		}
	}
	if len(parts) == 0 {
		return "usual pattern expected"
	}
	return strings.Join(parts, " | ")
}
