package restapi

import (
	"net/http"

	"quietride.org/internal/models"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewListResponse(api.Composer.Routes(), models.NewEmptyReferences()))
}
