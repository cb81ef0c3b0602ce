package restapi

import (
	"net/http"

	"quietride.org/internal/models"
	"quietride.org/internal/quietwindow"
	"quietride.org/internal/recommend"
	"quietride.org/internal/utils"
)

type quietTimesEntry struct {
	quietwindow.Report
	Operating bool              `json:"operating"`
	Unified   recommend.Unified `json:"unified"`
}

func (api *RestAPI) quietTimesHandler(w http.ResponseWriter, r *http.Request) {
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

	entry := quietTimesEntry{
		Report:    rec.QuietWindows,
		Operating: rec.Operating,
		Unified:   rec.Unified,
	}
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.buildReferences([]string{route}, rec.Signals)))
}
