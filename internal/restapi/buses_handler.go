package restapi

import (
	"net/http"

	"quietride.org/internal/models"
	"quietride.org/internal/utils"
)

// busesHandler answers for route=a,b or, without the parameter, every configured route.
func (api *RestAPI) busesHandler(w http.ResponseWriter, r *http.Request) {
	routes, fieldErrors := utils.ParseRouteListParam(r.URL.Query(), "route", nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Composer.Buses(r.Context(), routes)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	ids := make([]string, 0, len(result.Routes))
	for _, rb := range result.Routes {
		ids = append(ids, rb.Route)
	}
	api.sendResponse(w, r, models.NewEntryResponse(result, api.buildReferences(ids, nil)))
}
