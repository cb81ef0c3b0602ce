package restapi

import (
	"net/http"

	"quietride.org/internal/models"
	"quietride.org/internal/recommend"
	"quietride.org/internal/signals"
	"quietride.org/internal/utils"
)

func (api *RestAPI) forecastHandler(w http.ResponseWriter, r *http.Request) {
	route, fieldErrors := utils.ParseRouteParam(r.URL.Query(), "route", true, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	rec, err := api.Composer.Forecast(r.Context(), route)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	references := api.buildReferences([]string{route}, rec.Signals)
	api.sendResponse(w, r, models.NewEntryResponse(newForecastEntry(rec), references))
}

// newForecastEntry flattens a recommendation into the forecast payload. Event and
// traffic display fields are empty lists, never null.
func newForecastEntry(rec *recommend.Recommendation) models.ForecastEntry {
	f := rec.Forecast
	entry := models.ForecastEntry{
		Route:               rec.Route,
		GeneratedAt:         rec.GeneratedAt,
		DayType:             string(rec.DayType),
		Operating:           rec.Operating,
		PredictedCongestion: f.PredictedMultiplier,
		Confidence:          f.Confidence,
		BasePrediction:      f.BasePrediction,
		WeatherImpact:       f.WeatherImpact,
		TrafficImpact:       f.TrafficImpact,
		EventImpact:         f.EventImpact,
		Dominant:            f.Dominant,
		Recommendation:      f.Recommendation,
		Explanation:         f.Explanation,
		Events:              []signals.MatchedEvent{},
		CongestedRoads:      []string{},
		SmoothRoads:         []string{},
	}

	if d, ok := rec.Signal(signals.Events).Details.(*signals.EventDetails); ok && d != nil {
		entry.Events = append(entry.Events, d.Events...)
		entry.EventRecommendation = d.Recommendation
	}
	if d, ok := rec.Signal(signals.Traffic).Details.(*signals.TrafficDetails); ok && d != nil {
		entry.CongestedRoads = append(entry.CongestedRoads, d.CongestedRoads...)
		entry.SmoothRoads = append(entry.SmoothRoads, d.SmoothRoads...)
		entry.TrafficRecommendation = d.Recommendation
	}
	return entry
}
