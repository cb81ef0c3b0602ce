package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// PathParam returns the named httprouter parameter of r, trimmed of surrounding spaces.
// It is empty when the route declares no such parameter.
func PathParam(r *http.Request, name string) string {
	return strings.TrimSpace(httprouter.ParamsFromContext(r.Context()).ByName(name))
}
