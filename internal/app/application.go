package app

import (
	"log/slog"

	"quietride.org/internal/appconf"
	"quietride.org/internal/baseline"
	"quietride.org/internal/recommend"
)

// Application holds the dependencies shared by the HTTP handlers, the debug pages
// and middleware. The baseline model and composer are built once at startup and are
// safe for concurrent use.
type Application struct {
	Config   *appconf.Config
	Logger   *slog.Logger
	Baseline *baseline.Model
	Composer *recommend.Composer
}
