package baseline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"quietride.org/internal/logging"
)

type yamlFile struct {
	Curves []yamlCurve `yaml:"curves" validate:"required,min=1,dive"`
}

// yamlCurve lists consecutive bucket loads starting at Start.
type yamlCurve struct {
	Route      string    `yaml:"route" validate:"required,max=100"`
	DayType    string    `yaml:"dayType" validate:"required,oneof=weekday weekend"`
	Start      string    `yaml:"start" validate:"required"`
	Passengers []float64 `yaml:"passengers" validate:"required,min=1,dive,gte=0"`
}

func isSQLiteSource(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

func loadSource(ctx context.Context, source string, logger *slog.Logger) (*Snapshot, error) {
	var (
		raw []rawPoint
		err error
	)
	if isSQLiteSource(source) {
		raw, err = loadSQLite(ctx, source, logger)
	} else {
		raw, err = loadYAMLFile(source)
	}
	if err != nil {
		return nil, err
	}
	return buildSnapshot(source, raw)
}

func loadYAMLFile(path string) ([]rawPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) ([]rawPoint, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}

	var raw []rawPoint
	for _, c := range file.Curves {
		start, err := ParseClock(c.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: route %s: %v", ErrInvalidCurve, c.Route, err)
		}
		for i, passengers := range c.Passengers {
			raw = append(raw, rawPoint{
				route:       c.Route,
				dayType:     DayType(c.DayType),
				startMinute: start + i*BucketWidth,
				passengers:  passengers,
			})
		}
	}
	return raw, nil
}

const selectBucketsQuery = `SELECT route_id, day_type, start_minute, expected_passengers
FROM baseline_buckets
ORDER BY route_id, day_type, start_minute`

func loadSQLite(ctx context.Context, path string, logger *slog.Logger) (raw []rawPoint, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening baseline database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening baseline database: %w", err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "baseline_database")

	rows, err := db.QueryContext(ctx, selectBucketsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying baseline buckets: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, logger, "closing baseline rows")

	for rows.Next() {
		var (
			p       rawPoint
			dayType string
		)
		if err := rows.Scan(&p.route, &dayType, &p.startMinute, &p.passengers); err != nil {
			return nil, fmt.Errorf("scanning baseline bucket: %w", err)
		}
		p.dayType = DayType(dayType)
		raw = append(raw, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading baseline buckets: %w", err)
	}
	return raw, nil
}
