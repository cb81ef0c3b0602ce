package webui

import "net/http"

// Handler serves the debug index. It is mounted under /debug/ by the API router.
func (webUI *WebUI) Handler() http.Handler {
	return http.HandlerFunc(webUI.debugIndexHandler)
}

// SetWebUIRoutes registers the debug pages on a standalone mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/", webUI.debugIndexHandler)
}
