package baseline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"quietride.org/internal/logging"
)

// Model serves lookups against the current baseline snapshot. Readers never lock;
// a reload swaps in a fully validated snapshot.
type Model struct {
	source      string
	snapshot    atomic.Pointer[Snapshot]
	reloadMutex sync.Mutex
	lastModTime time.Time
	logger      *slog.Logger

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewModel creates an empty model. Call Load before serving lookups.
func NewModel(logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		logger:       logger.With(slog.String("component", "baseline")),
		shutdownChan: make(chan struct{}),
	}
}

// NewModelFromCurves builds a model over in-memory curves.
func NewModelFromCurves(logger *slog.Logger, curves ...Curve) (*Model, error) {
	snap, err := NewSnapshot("memory", curves)
	if err != nil {
		return nil, err
	}
	m := NewModel(logger)
	m.source = snap.Source
	m.snapshot.Store(snap)
	return m, nil
}

// Load parses and validates source (a YAML file, or a SQLite database by extension)
// and makes it the current snapshot. On failure the previous snapshot stays in place.
func (m *Model) Load(ctx context.Context, source string) error {
	m.reloadMutex.Lock()
	defer m.reloadMutex.Unlock()

	var modTime time.Time
	if info, err := os.Stat(source); err == nil {
		modTime = info.ModTime()
	}

	snap, err := loadSource(ctx, source, m.logger)
	if err != nil {
		return fmt.Errorf("loading baseline from %s: %w", source, err)
	}

	m.source = source
	m.lastModTime = modTime
	m.snapshot.Store(snap)

	logging.LogOperation(m.logger, "baseline_loaded",
		slog.String("source", source),
		slog.Int("routes", len(snap.routes)),
		slog.Int("curves", len(snap.curves)))
	return nil
}

// Reload re-reads the source the model was last loaded from.
func (m *Model) Reload(ctx context.Context) error {
	m.reloadMutex.Lock()
	source := m.source
	m.reloadMutex.Unlock()

	if source == "" {
		return fmt.Errorf("baseline has no source to reload")
	}
	return m.Load(ctx, source)
}

// Snapshot returns the current snapshot, or nil before the first load.
func (m *Model) Snapshot() *Snapshot {
	return m.snapshot.Load()
}

// LoadedAt returns when the current snapshot was built.
func (m *Model) LoadedAt() time.Time {
	if snap := m.snapshot.Load(); snap != nil {
		return snap.LoadedAt
	}
	return time.Time{}
}

// Routes lists every route with at least one curve.
func (m *Model) Routes() []string {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil
	}
	return append([]string(nil), snap.routes...)
}

// HasRoute reports whether route has a curve for any day type.
func (m *Model) HasRoute(route string) bool {
	snap := m.snapshot.Load()
	if snap == nil {
		return false
	}
	for _, r := range snap.routes {
		if r == route {
			return true
		}
	}
	return false
}

// Curve returns the curve for route and dayType.
func (m *Model) Curve(route string, dayType DayType) (*Curve, error) {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil, ErrRouteNotFound
	}
	c, ok := snap.curve(route, dayType)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrRouteNotFound, route, dayType)
	}
	return c, nil
}

// Lookup returns the expected passengers in the bucket containing minuteOfDay.
func (m *Model) Lookup(route string, dayType DayType, minuteOfDay int) (float64, error) {
	c, err := m.Curve(route, dayType)
	if err != nil {
		return 0, err
	}
	p, ok := c.At(minuteOfDay)
	if !ok {
		return 0, fmt.Errorf("%w: %s at %s", ErrNoService, route, FormatMinute(BucketStart(minuteOfDay)))
	}
	return p.ExpectedPassengers, nil
}

// DayRange returns the route's buckets over its operating hours, in order.
// The returned slice is shared and must not be modified.
func (m *Model) DayRange(route string, dayType DayType) ([]Point, error) {
	c, err := m.Curve(route, dayType)
	if err != nil {
		return nil, err
	}
	return c.Points, nil
}

// WatchForChanges reloads the source whenever its modification time changes.
func (m *Model) WatchForChanges(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.watch(interval)
}

func (m *Model) watch(interval time.Duration) {
	defer m.wg.Done()

	logger := m.logger.With(slog.String("component", "baseline_watcher"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			modTime, changed := m.sourceChanged()
			if !changed {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := m.Reload(ctx); err != nil {
				logging.LogError(logger, "baseline reload failed, keeping previous snapshot", err)
				m.markSeen(modTime)
			}
			cancel()
		case <-m.shutdownChan:
			logging.LogOperation(logger, "shutting_down_baseline_watcher")
			return
		}
	}
}

func (m *Model) sourceChanged() (time.Time, bool) {
	m.reloadMutex.Lock()
	source, last := m.source, m.lastModTime
	m.reloadMutex.Unlock()

	info, err := os.Stat(source)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), info.ModTime().After(last)
}

// markSeen stops a broken source from being retried until it changes again.
func (m *Model) markSeen(modTime time.Time) {
	m.reloadMutex.Lock()
	m.lastModTime = modTime
	m.reloadMutex.Unlock()
}

// Shutdown stops the watcher and waits for it to exit.
func (m *Model) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.shutdownChan)
		m.wg.Wait()
	})
}
