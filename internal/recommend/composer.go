// Package recommend orchestrates one advisory request: it fetches every real-time
// source concurrently under a shared deadline and assembles forecast, quiet windows and
// live bus advice.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quietride.org/internal/appconf"
	"quietride.org/internal/baseline"
	"quietride.org/internal/forecast"
	"quietride.org/internal/livefeed"
	"quietride.org/internal/logging"
	"quietride.org/internal/occupancy"
	"quietride.org/internal/quietwindow"
	"quietride.org/internal/signals"
	"quietride.org/internal/utils"
)

const defaultDeadline = 3 * time.Second

// ErrRouteNotFound is returned for routes without configuration or a baseline curve.
var ErrRouteNotFound = baseline.ErrRouteNotFound

// Options wires a Composer. Baseline and Config are required; everything else has a
// usable default.
type Options struct {
	Config     *appconf.Config
	Baseline   *baseline.Model
	Adapters   []signals.Adapter
	Feed       *livefeed.Feed
	Classifier *occupancy.Classifier
	Blender    *forecast.Blender
	Finder     *quietwindow.Finder
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Composer holds no per-request state and is safe for concurrent use.
type Composer struct {
	cfg        *appconf.Config
	baseline   *baseline.Model
	adapters   []signals.Adapter
	feed       *livefeed.Feed
	classifier *occupancy.Classifier
	blender    *forecast.Blender
	finder     *quietwindow.Finder
	clock      func() time.Time
	logger     *slog.Logger
	location   *time.Location
	deadline   time.Duration
	areas      map[string]signals.RouteArea
}

func NewComposer(opts Options) (*Composer, error) {
	if opts.Config == nil {
		return nil, errors.New("recommend: config is required")
	}
	if opts.Baseline == nil {
		return nil, errors.New("recommend: baseline model is required")
	}

	c := &Composer{
		cfg:        opts.Config,
		baseline:   opts.Baseline,
		adapters:   opts.Adapters,
		feed:       opts.Feed,
		classifier: opts.Classifier,
		blender:    opts.Blender,
		finder:     opts.Finder,
		clock:      opts.Clock,
		logger:     opts.Logger,
		location:   opts.Config.Location(),
		deadline:   opts.Config.Forecast.RequestDeadline,
		areas:      make(map[string]signals.RouteArea, len(opts.Config.Routes)),
	}
	if c.classifier == nil {
		c.classifier = occupancy.NewClassifierFromConfig(opts.Config)
	}
	if c.blender == nil {
		c.blender = forecast.NewBlender(opts.Config.Forecast)
	}
	if c.finder == nil {
		c.finder = quietwindow.NewFinder(c.classifier)
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.deadline <= 0 {
		c.deadline = defaultDeadline
	}
	if c.logger == nil {
		c.logger = slog.Default().With(slog.String("component", "recommend"))
	}

	for _, r := range opts.Config.Routes {
		path, err := utils.DecodePath(r.ServiceArea)
		if err != nil {
			return nil, fmt.Errorf("route %s service area: %w", r.ID, err)
		}
		c.areas[r.ID] = signals.RouteArea{ID: r.ID, Path: path, Roads: r.Roads}
	}
	return c, nil
}

// Classifier exposes the comfort classifier shared by every response.
func (c *Composer) Classifier() *occupancy.Classifier {
	return c.classifier
}

// Now is the service clock in the configured timezone.
func (c *Composer) Now() time.Time {
	return c.clock().In(c.location)
}

func (c *Composer) route(id string) (appconf.Route, error) {
	r, ok := c.cfg.FindRoute(id)
	if !ok {
		return appconf.Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}
	return r, nil
}

// gathered is everything the fan-out managed to collect before the deadline.
type gathered struct {
	signals  map[signals.Source]signals.Signal
	readings []livefeed.BusReading
	feedOK   bool
}

func (g gathered) signal(source signals.Source) signals.Signal {
	if s, ok := g.signals[source]; ok {
		return s
	}
	return signals.Neutral(source)
}

type result struct {
	signal   *signals.Signal
	readings []livefeed.BusReading
}

// gather runs the given adapters, and the live feed when withFeed is set, each in its
// own goroutine. It returns when all have reported or the shared deadline fires;
// anything arriving later is dropped into the buffered channel and discarded.
func (c *Composer) gather(ctx context.Context, now time.Time, area signals.RouteArea, adapters []signals.Adapter, withFeed bool) gathered {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	cache := signals.NewRequestCache()
	req := signals.Request{Route: area, Now: now, Cache: cache}

	withFeed = withFeed && c.feed.Enabled()
	pending := len(adapters)
	if withFeed {
		pending++
	}
	results := make(chan result, pending)

	for _, a := range adapters {
		go func(a signals.Adapter) {
			s := a.Fetch(ctx, req)
			results <- result{signal: &s}
		}(a)
	}
	if withFeed {
		go func() {
			results <- result{readings: c.feed.Readings(ctx, now, cache)}
		}()
	}

	g := gathered{signals: make(map[signals.Source]signals.Signal, len(adapters))}
	for pending > 0 {
		select {
		case r := <-results:
			pending--
			if r.signal != nil {
				g.signals[r.signal.Source] = *r.signal
				continue
			}
			g.readings, g.feedOK = r.readings, true
		case <-ctx.Done():
			for _, a := range adapters {
				if _, ok := g.signals[a.Source()]; !ok {
					logging.LogUpstreamFailure(c.logger, string(a.Source()), ctx.Err(),
						slog.String("route", area.ID))
				}
			}
			if withFeed && !g.feedOK {
				logging.LogUpstreamFailure(c.logger, "live_feed", ctx.Err(),
					slog.String("route", area.ID))
			}
			return g
		}
	}
	return g
}

func (c *Composer) adapter(source signals.Source) (signals.Adapter, bool) {
	for _, a := range c.adapters {
		if a.Source() == source {
			return a, true
		}
	}
	return nil, false
}
