package restapi

import (
	"net/http"

	"quietride.org/internal/baseline"
	"quietride.org/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := api.Composer.Now()
	data := models.NewCurrentTimeData(now, string(baseline.DayTypeFor(now)))
	api.sendResponse(w, r, models.NewOKResponse(data))
}
