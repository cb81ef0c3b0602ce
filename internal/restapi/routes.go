package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

const debugPrefix = "/debug/"

// Router registers every API endpoint. Path parameters are read back with
// utils.PathParam.
func (api *RestAPI) Router() *httprouter.Router {
	router := httprouter.New()
	api.SetRoutes(router)
	return router
}

// MountDebug serves h under /debug/. Call before Handler.
func (api *RestAPI) MountDebug(h http.Handler) {
	api.debug = h
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/api/forecast", api.forecastHandler)
	router.HandlerFunc(http.MethodGet, "/api/recommendation", api.recommendationHandler)
	router.HandlerFunc(http.MethodGet, "/api/quiet-times", api.quietTimesHandler)
	router.HandlerFunc(http.MethodGet, "/api/buses", api.busesHandler)
	router.HandlerFunc(http.MethodGet, "/api/weather", api.weatherHandler)
	router.HandlerFunc(http.MethodGet, "/api/traffic", api.trafficHandler)
	router.HandlerFunc(http.MethodGet, "/api/routes", api.routesHandler)
	router.HandlerFunc(http.MethodGet, "/api/baseline/:route", api.baselineHandler)
	router.HandlerFunc(http.MethodGet, "/api/current-time", api.currentTimeHandler)
	if api.debug != nil {
		router.Handler(http.MethodGet, debugPrefix, api.debug)
	}

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, panicError{v})
	}
}
