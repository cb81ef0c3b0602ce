package restapi

import (
	"net/http"

	"quietride.org/internal/models"
	"quietride.org/internal/signals"
)

func (api *RestAPI) weatherHandler(w http.ResponseWriter, r *http.Request) {
	sig := api.Composer.Weather(r.Context())
	api.sendResponse(w, r, models.NewEntryResponse(newWeatherEntry(sig), api.buildReferences(nil, []signals.Signal{sig})))
}

func newWeatherEntry(sig signals.Signal) models.WeatherEntry {
	entry := models.WeatherEntry{
		Weather:        sig.Explanation,
		ImpactFactor:   sig.ImpactFactor,
		Confidence:     sig.Confidence,
		Reasons:        []string{},
		Recommendation: sig.Explanation,
		Available:      sig.Reported(),
	}

	d, ok := sig.Details.(*signals.WeatherDetails)
	if !ok || d == nil {
		return entry
	}
	entry.Weather = d.Description
	entry.Temperature = d.Temperature
	entry.Humidity = d.Humidity
	entry.IsRaining = d.IsRaining
	entry.IsSnowing = d.IsSnowing
	entry.PrecipitationProbability = d.PrecipitationProbability
	entry.Reasons = append(entry.Reasons, d.Reasons...)
	entry.Recommendation = d.Recommendation
	entry.ObservedAt = d.ObservedAt
	return entry
}
