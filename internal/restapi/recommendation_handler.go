package restapi

import (
	"net/http"

	"quietride.org/internal/models"
	"quietride.org/internal/utils"
)

// recommendationHandler returns everything the engine knows about a route in one
// response: forecast, signals, quiet windows, live buses and the unified advice.
func (api *RestAPI) recommendationHandler(w http.ResponseWriter, r *http.Request) {
	route, fieldErrors := utils.ParseRouteParam(r.URL.Query(), "route", true, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	rec, err := api.Composer.Compose(r.Context(), route)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(rec, api.buildReferences([]string{route}, rec.Signals)))
}
