package restapi

import (
	"net/http"

	"quietride.org/internal/models"
)

// trafficHandler reports bus spacing per route, estimated from the live feed.
func (api *RestAPI) trafficHandler(w http.ResponseWriter, r *http.Request) {
	headways := api.Composer.Headways(r.Context())

	ids := make([]string, 0, len(headways))
	for _, h := range headways {
		ids = append(ids, h.Route)
	}
	api.sendResponse(w, r, models.NewListResponse(headways, api.buildReferences(ids, nil)))
}
