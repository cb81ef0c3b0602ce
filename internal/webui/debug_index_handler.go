package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"quietride.org/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dataTypes = []string{"config", "routes", "baseline", "thresholds", "buses", "recommendation"}

type debugData struct {
	Title     string
	Pre       string
	DataTypes []string
}

func writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title:     title,
		Pre:       spew.Sdump(data),
		DataTypes: dataTypes,
	})
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to render debug page", err)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dataType := query.Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "config":
		data = webUI.Config
		title = "Configuration"
	case "routes":
		data = webUI.Composer.Routes()
		title = "Configured Routes"
	case "baseline":
		snap := webUI.Composer.Snapshot()
		if snap == nil {
			data = map[string]string{"error": "baseline not loaded"}
		} else {
			data = map[string]interface{}{
				"source":   snap.Source,
				"loadedAt": snap.LoadedAt,
				"curves":   snap.Curves(),
			}
		}
		title = "Baseline Snapshot"
	case "thresholds":
		thresholds := make(map[string]interface{}, len(webUI.Config.Routes))
		for _, route := range webUI.Config.Routes {
			thresholds[route.ID] = webUI.Composer.Classifier().Thresholds(route.ID)
		}
		data = thresholds
		title = "Comfort Thresholds"
	case "buses":
		result, err := webUI.Composer.Buses(r.Context(), nil)
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = result
		}
		title = "Live Buses"
	case "recommendation":
		route := query.Get("route")
		if route == "" && len(webUI.Config.Routes) > 0 {
			route = webUI.Config.Routes[0].ID
		}
		rec, err := webUI.Composer.Compose(r.Context(), route)
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = rec
		}
		title = "Recommendation - " + route
	default:
		data = map[string]string{
			"error": "Please use one of the following: config, routes, baseline, thresholds, buses, recommendation (with route=).",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, r, title, data)
}
