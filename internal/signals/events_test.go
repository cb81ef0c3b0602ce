package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietride.org/internal/utils"
)

var (
	eventNow   = time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC)
	eventRoute = RouteArea{
		ID: "421",
		Path: []utils.LatLon{
			{Lat: 35.0, Lon: 136.0},
			{Lat: 35.0, Lon: 136.1},
		},
	}
)

func concert() CalendarEvent {
	return CalendarEvent{
		Name:               "Autumn Concert",
		Type:               "concert",
		Venue:              "City Dome",
		Lat:                35.005,
		Lon:                136.05,
		Start:              eventNow.Add(time.Hour),
		End:                eventNow.Add(4 * time.Hour),
		ExpectedAttendance: 40000,
	}
}

func TestEventSignalNoMatches(t *testing.T) {
	cfg := defaultConfig().Events

	far := concert()
	far.Lat = 35.1
	later := concert()
	later.Start = eventNow.Add(3 * time.Hour)
	over := concert()
	over.Start = eventNow.Add(-5 * time.Hour)
	over.End = eventNow.Add(-time.Hour)
	noCoords := concert()
	noCoords.Lat, noCoords.Lon = 0, 0

	s := EventSignal(Calendar{Events: []CalendarEvent{far, later, over, noCoords}}, eventRoute, eventNow, cfg)

	assert.Equal(t, 1.0, s.ImpactFactor)
	assert.Zero(t, s.Confidence)
	assert.Nil(t, s.Details, "no event list is emitted without matches")
	assert.True(t, s.IsNeutral())
}

func TestEventSignalVenueNearRoute(t *testing.T) {
	cfg := defaultConfig().Events

	s := EventSignal(Calendar{Events: []CalendarEvent{concert()}}, eventRoute, eventNow, cfg)

	// 40000 / 10000 * 0.05 = 0.2 boost
	assert.Equal(t, 1.2, s.ImpactFactor)
	assert.Equal(t, 0.65, s.Confidence)
	assert.Equal(t, "Autumn Concert at City Dome", s.Explanation)

	details := s.Details.(*EventDetails)
	require.Len(t, details.Events, 1)
	require.NotNil(t, details.Events[0].DistanceMeters)
	assert.InDelta(t, 556, *details.Events[0].DistanceMeters, 10)
	assert.Equal(t, "Autumn Concert: slightly busier", details.Recommendation)
}

func TestEventSignalBoostIsCapped(t *testing.T) {
	cfg := defaultConfig().Events
	huge := concert()
	huge.ExpectedAttendance = 5000000

	s := EventSignal(Calendar{Events: []CalendarEvent{huge}}, eventRoute, eventNow, cfg)
	assert.Equal(t, 1.5, s.ImpactFactor)
}

func TestEventSignalImpactRatingWithoutAttendance(t *testing.T) {
	cfg := defaultConfig().Events
	rated := concert()
	rated.ExpectedAttendance = 0
	rated.Impact = "high"

	s := EventSignal(Calendar{Events: []CalendarEvent{rated}}, eventRoute, eventNow, cfg)
	assert.Equal(t, 1.3, s.ImpactFactor)
	assert.Contains(t, s.Details.(*EventDetails).Recommendation, "expect crowds")
}

func TestEventSignalHolidays(t *testing.T) {
	cfg := defaultConfig().Events
	dayStart := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	holiday := CalendarEvent{
		Name:  "Sports Day",
		Type:  "holiday",
		Start: dayStart,
		End:   dayStart.Add(24*time.Hour - time.Minute),
	}

	s := EventSignal(Calendar{Events: []CalendarEvent{holiday}}, RouteArea{ID: "421"}, eventNow, cfg)
	assert.Equal(t, 0.6, s.ImpactFactor, "holidays apply without a service area")
	assert.Equal(t, "Sports Day holiday lowers ridership", s.Explanation)

	holiday.Major = true
	s = EventSignal(Calendar{Events: []CalendarEvent{holiday}}, RouteArea{ID: "421"}, eventNow, cfg)
	assert.Equal(t, 0.3, s.ImpactFactor)
	assert.Contains(t, s.Details.(*EventDetails).Recommendation, "long holiday")
}

func TestEventSignalCombinesMatches(t *testing.T) {
	cfg := defaultConfig().Events
	dayStart := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	holiday := CalendarEvent{Name: "Sports Day", Type: "Holiday", Start: dayStart, End: dayStart.Add(24 * time.Hour)}

	s := EventSignal(Calendar{Events: []CalendarEvent{concert(), holiday}}, eventRoute, eventNow, cfg)

	assert.Equal(t, 0.72, s.ImpactFactor)
	assert.Equal(t, 0.8, s.Confidence)
	details := s.Details.(*EventDetails)
	require.Len(t, details.Events, 2)
	assert.Equal(t, "Sports Day", details.Events[0].Name, "largest deviation first")
}

func TestEventConfidenceIsCapped(t *testing.T) {
	cfg := defaultConfig().Events
	var events []CalendarEvent
	for i := 0; i < 6; i++ {
		events = append(events, concert())
	}
	s := EventSignal(Calendar{Events: events}, eventRoute, eventNow, cfg)
	assert.Equal(t, 0.95, s.Confidence)
}

func TestEventAdapterReadsFile(t *testing.T) {
	cfg := defaultConfig().Events
	cfg.Source = filepath.Join("..", "..", "testdata", "events.yaml")
	adapter := NewEventAdapter(cfg, nil, nil)
	assert.Equal(t, Events, adapter.Source())

	path, err := utils.DecodePath("_}rtE_oa}X?_pR")
	require.NoError(t, err)

	// The fixture holds a stadium match near this route on the evening of 2026-10-17.
	now := time.Date(2026, 10, 17, 17, 30, 0, 0, time.UTC)
	s := adapter.Fetch(context.Background(), Request{Route: RouteArea{ID: "421", Path: path}, Now: now})
	assert.Greater(t, s.ImpactFactor, 1.0)
	assert.Greater(t, s.Confidence, 0.0)
}

func TestEventAdapterReadsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Calendar{Events: []CalendarEvent{concert()}})
	}))
	defer server.Close()

	cfg := defaultConfig().Events
	cfg.Source = server.URL
	s := NewEventAdapter(cfg, nil, nil).Fetch(context.Background(), Request{Route: eventRoute, Now: eventNow})
	assert.Equal(t, 1.2, s.ImpactFactor)
}

func TestEventAdapterMissingFile(t *testing.T) {
	cfg := defaultConfig().Events
	cfg.Source = filepath.Join(t.TempDir(), "missing.yaml")
	s := NewEventAdapter(cfg, nil, nil).Fetch(context.Background(), Request{Route: eventRoute, Now: eventNow})
	assert.Equal(t, Neutral(Events), s)
}
