package livefeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jamespfennell/gtfs"

	"quietride.org/internal/logging"
	"quietride.org/internal/signals"
)

const maxFeedBytes = 16 << 20

func loadRealtimeData(ctx context.Context, client *http.Client, source string, headers map[string]string) (*gtfs.Realtime, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", source, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Add(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_realtime_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	return gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
}

// fetchBoth downloads trip updates and vehicle positions in parallel. A failed vehicle
// feed only costs the occupancy data; a failed trip feed is returned as an error.
func (f *Feed) fetchBoth(ctx context.Context, cache *signals.RequestCache) ([]gtfs.Trip, []gtfs.Vehicle, error) {
	headers := map[string]string{}
	if f.cfg.AuthHeaderKey != "" && f.cfg.AuthHeaderValue != "" {
		headers[f.cfg.AuthHeaderKey] = f.cfg.AuthHeaderValue
	}

	load := func(source string) (*gtfs.Realtime, error) {
		v, err := cache.Do("gtfs-rt:"+source, func() (any, error) {
			return loadRealtimeData(ctx, f.client, source, headers)
		})
		if err != nil {
			return nil, err
		}
		return v.(*gtfs.Realtime), nil
	}

	var wg sync.WaitGroup
	var tripData, vehicleData *gtfs.Realtime
	var tripErr, vehicleErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		tripData, tripErr = load(f.cfg.TripUpdatesURL)
	}()

	if f.cfg.VehiclePositionsURL != "" && f.cfg.VehiclePositionsURL != f.cfg.TripUpdatesURL {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vehicleData, vehicleErr = load(f.cfg.VehiclePositionsURL)
			if vehicleErr != nil {
				logging.LogUpstreamFailure(f.logger, "vehicle_positions", vehicleErr,
					slog.String("url", f.cfg.VehiclePositionsURL))
			}
		}()
	}

	wg.Wait()

	if tripErr != nil {
		return nil, nil, fmt.Errorf("loading trip updates: %w", tripErr)
	}

	vehicles := tripData.Vehicles
	if vehicleData != nil && vehicleErr == nil {
		vehicles = append(append([]gtfs.Vehicle(nil), vehicles...), vehicleData.Vehicles...)
	}
	return tripData.Trips, vehicles, nil
}
