package restapi

import (
	"fmt"
	"net/http"

	"quietride.org/internal/baseline"
	"quietride.org/internal/models"
	"quietride.org/internal/recommend"
	"quietride.org/internal/utils"
)

type baselineEntry struct {
	Route   string                  `json:"route"`
	DayType baseline.DayType        `json:"day_type"`
	Points  []recommend.BandedPoint `json:"points"`
}

// baselineHandler serves the historical curve of a route with comfort bands, for
// ?dayType=weekday|weekend or today's day type.
func (api *RestAPI) baselineHandler(w http.ResponseWriter, r *http.Request) {
	route := utils.PathParam(r, "route")
	fieldErrors := make(map[string][]string)
	if err := utils.ValidateID(route); err != nil {
		fieldErrors["route"] = append(fieldErrors["route"], fmt.Sprintf("Invalid field value for field %q: %s.", "route", err))
	}

	var dayType baseline.DayType
	if raw := r.URL.Query().Get("dayType"); raw != "" {
		dt, err := baseline.ParseDayType(raw)
		if err != nil {
			fieldErrors["dayType"] = append(fieldErrors["dayType"], fmt.Sprintf("Invalid field value for field %q: %s.", "dayType", err))
		}
		dayType = dt
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	dayType, points, err := api.Composer.BaselineDay(route, dayType)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	entry := baselineEntry{Route: route, DayType: dayType, Points: points}
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.buildReferences([]string{route}, nil)))
}
