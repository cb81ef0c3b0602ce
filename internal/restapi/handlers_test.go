package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietride.org/internal/signals"
)

func TestQuietTimesHandler(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 22, 10), neutralAdapters())

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/quiet-times?route=421")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, "421", entry["route"])
	assert.Equal(t, true, entry["operating"])

	unified := entry["unified"].(map[string]interface{})
	assert.Equal(t, "board now", unified["action"])
	assert.Equal(t, "comfortable", unified["band"])

	next := entry["next_quiet_time"].(map[string]interface{})
	assert.Equal(t, true, next["found"])
	assert.Equal(t, float64(0), next["wait_minutes"])

	best := entry["best_times_today"].([]interface{})
	require.NotEmpty(t, best)
	last := best[len(best)-1].(map[string]interface{})
	assert.Equal(t, "22:00", last["start"])
	assert.Equal(t, "24:00", last["end"])

	assert.NotEmpty(t, entry["avoid_times"])
	assert.Contains(t, entry, "advice")
}

func TestQuietTimesHandlerOutsideHours(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 3, 0), neutralAdapters())

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/quiet-times?route=421")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, false, entry["operating"])
	status := entry["current_status"].(map[string]interface{})
	assert.Equal(t, false, status["operating"])
}

func TestRecommendationHandler(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 8, 0), morningAdapters())

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/recommendation?route=421")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, "Riverside Line", entry["route_name"])
	assert.Len(t, entry["signals"], 3)
	forecast := entry["forecast"].(map[string]interface{})
	assert.InDelta(t, 1.716, forecast["predicted_congestion"], 1e-9)
	unified := entry["unified"].(map[string]interface{})
	assert.Equal(t, "travel at another time", unified["action"])
	assert.Equal(t, "very_crowded", unified["band"])
}

func TestBusesHandlerWithoutFeed(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 8, 0), neutralAdapters())

	t.Run("every configured route", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/buses")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		entry := entryOf(t, model)
		assert.Equal(t, false, entry["available"])
		routes := entry["routes"].([]interface{})
		require.Len(t, routes, 3)
		first := routes[0].(map[string]interface{})
		assert.Equal(t, "421", first["route"])
		assert.Equal(t, []interface{}{}, first["buses"])
		assert.Equal(t, "not enough data to recommend a bus", first["recommendation"])

		stats := entry["comfort_stats"].(map[string]interface{})
		assert.Equal(t, "no live buses to analyze", stats["recommendation"])
	})

	t.Run("route list", func(t *testing.T) {
		_, model := serveApiAndRetrieveEndpoint(t, api, "/api/buses?route=421,405")
		routes := entryOf(t, model)["routes"].([]interface{})
		assert.Len(t, routes, 2)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/buses?route=421,999")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid route id", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/buses?route=4%3C21")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestWeatherHandler(t *testing.T) {
	temp, humidity := 12.5, 88.0
	weather := signals.Signal{
		Source:       signals.Weather,
		ImpactFactor: 1.3,
		Confidence:   0.9,
		Explanation:  "rain",
		Details: &signals.WeatherDetails{
			Description:              "rain",
			Temperature:              &temp,
			Humidity:                 &humidity,
			IsRaining:                true,
			PrecipitationProbability: 0.8,
			Reasons:                  []string{"rain"},
			Recommendation:           "rain expected, buses will be busier than usual",
		},
	}

	t.Run("reported", func(t *testing.T) {
		api := createTestApi(t, atTokyo(t, 8, 0), []signals.Adapter{stubAdapter{weather}})
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/weather")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		entry := entryOf(t, model)
		assert.Equal(t, "rain", entry["weather"])
		assert.Equal(t, 12.5, entry["temperature"])
		assert.Equal(t, 88.0, entry["humidity"])
		assert.Equal(t, true, entry["is_raining"])
		assert.Equal(t, false, entry["is_snowing"])
		assert.Equal(t, 1.3, entry["impact_factor"])
		assert.Equal(t, "rain expected, buses will be busier than usual", entry["recommendation"])
		assert.Equal(t, true, entry["available"])
	})

	t.Run("unavailable", func(t *testing.T) {
		api := createTestApi(t, atTokyo(t, 8, 0), neutralAdapters())
		_, model := serveApiAndRetrieveEndpoint(t, api, "/api/weather")

		entry := entryOf(t, model)
		assert.Equal(t, false, entry["available"])
		assert.Equal(t, 1.0, entry["impact_factor"])
		assert.Nil(t, entry["temperature"])
		assert.Equal(t, []interface{}{}, entry["reasons"])
	})
}

func TestTrafficHandlerWithoutFeed(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 8, 0), neutralAdapters())

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/traffic")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listOf(t, model))

	data := model.Data.(map[string]interface{})
	assert.Equal(t, false, data["limitExceeded"])
}

func TestRoutesHandler(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 8, 0), neutralAdapters())

	_, model := serveApiAndRetrieveEndpoint(t, api, "/api/routes")
	list := listOf(t, model)
	require.Len(t, list, 3)

	first := list[0].(map[string]interface{})
	assert.Equal(t, "421", first["id"])
	assert.Equal(t, "Riverside Line", first["name"])
	assert.Equal(t, []interface{}{"weekday", "weekend"}, first["day_types"])

	night := list[2].(map[string]interface{})
	assert.Equal(t, []interface{}{}, night["day_types"])
}

func TestBaselineHandler(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 8, 0), neutralAdapters())

	t.Run("today", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/baseline/421")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		entry := entryOf(t, model)
		assert.Equal(t, "weekday", entry["day_type"])
		points := entry["points"].([]interface{})
		require.Len(t, points, 114)
		first := points[0].(map[string]interface{})
		assert.Equal(t, "05:00", first["time"])
		assert.Equal(t, "very_comfortable", first["band"])
	})

	t.Run("explicit day type", func(t *testing.T) {
		_, model := serveApiAndRetrieveEndpoint(t, api, "/api/baseline/421?dayType=WEEKEND")
		entry := entryOf(t, model)
		assert.Equal(t, "weekend", entry["day_type"])
		first := entry["points"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "08:00", first["time"])
	})

	testCases := []struct {
		name       string
		endpoint   string
		wantStatus int
	}{
		{"unknown day type", "/api/baseline/421?dayType=holiday", http.StatusBadRequest},
		{"no weekend curve", "/api/baseline/405?dayType=weekend", http.StatusNotFound},
		{"no curve at all", "/api/baseline/400", http.StatusNotFound},
		{"unknown route", "/api/baseline/999", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := serveApiAndRetrieveEndpoint(t, api, tc.endpoint)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestCurrentTimeHandler(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 22, 10), neutralAdapters())

	_, model := serveApiAndRetrieveEndpoint(t, api, "/api/current-time")
	entry := entryOf(t, model)
	assert.Equal(t, "Asia/Tokyo", entry["timezone"])
	assert.Equal(t, "weekday", entry["dayType"])
	assert.Equal(t, float64(22*60+10), entry["minuteOfDay"])
	assert.Equal(t, "2026-10-16T22:10:00+09:00", entry["readableTime"])
}
