// Package webui serves plain HTML debug pages that dump the engine's in-memory state.
package webui

import (
	"quietride.org/internal/app"
)

type WebUI struct {
	*app.Application
}

func NewWebUI(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}
