package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"quietride.org/internal/app"
	"quietride.org/internal/appconf"
	"quietride.org/internal/baseline"
	"quietride.org/internal/livefeed"
	"quietride.org/internal/recommend"
	"quietride.org/internal/restapi"
	"quietride.org/internal/signals"
	"quietride.org/internal/webui"
)

// service is the wired application and the resources to release on exit.
type service struct {
	app      *app.Application
	handler  http.Handler
	shutdown func()
}

// buildService loads the baseline and wires adapters, feed, composer and HTTP layer.
// A baseline that cannot be loaded is fatal: there is nothing to forecast from.
func buildService(ctx context.Context, cfg *appconf.Config, logger *slog.Logger) (*service, error) {
	model := baseline.NewModel(logger)
	if err := model.Load(ctx, cfg.Baseline.Source); err != nil {
		return nil, err
	}
	model.WatchForChanges(cfg.Baseline.ReloadInterval)

	client := &http.Client{}
	var adapters []signals.Adapter
	if cfg.Weather.URL != "" {
		adapters = append(adapters, signals.NewWeatherAdapter(cfg.Weather, client, logger))
	}
	if cfg.Traffic.URL != "" {
		adapters = append(adapters, signals.NewTrafficAdapter(cfg.Traffic, client, logger))
	}
	if cfg.Events.Source != "" {
		adapters = append(adapters, signals.NewEventAdapter(cfg.Events, client, logger))
	}

	var feed *livefeed.Feed
	if cfg.LiveFeed.Enabled() {
		feed = livefeed.NewFeed(cfg.LiveFeed, cfg.Routes, client, logger)
	}

	composer, err := recommend.NewComposer(recommend.Options{
		Config:   cfg,
		Baseline: model,
		Adapters: adapters,
		Feed:     feed,
		Logger:   logger.With(slog.String("component", "recommend")),
	})
	if err != nil {
		model.Shutdown()
		return nil, fmt.Errorf("wiring composer: %w", err)
	}

	application := &app.Application{
		Config:   cfg,
		Logger:   logger,
		Baseline: model,
		Composer: composer,
	}

	api := restapi.NewRestAPI(application)
	if cfg.Env != appconf.Production {
		api.MountDebug(webui.NewWebUI(application).Handler())
	}

	return &service{
		app:     application,
		handler: api.Handler(),
		shutdown: func() {
			api.Shutdown()
			model.Shutdown()
		},
	}, nil
}
