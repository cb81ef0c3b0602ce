package appconf

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"quietride.org/internal/utils"
)

// Load reads the YAML configuration at path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Default returns a configuration with every tunable at its documented default.
// Tunables for which zero is meaningful are only defaulted here, so a document
// decoded over Default keeps an explicit zero.
func Default() Config {
	cfg := Config{
		Server:   ServerConfig{RateLimit: 100},
		Forecast: ForecastConfig{NeutralConfidence: 0.6},
		Weather: WeatherConfig{
			RainPopWeight: 0.2,
			HeatAboveC:    30,
			HumidAbovePct: 80,
			FreshFor:      15 * time.Minute,
			StaleAfter:    3 * time.Hour,
			MaxConfidence: 0.9,
			MinConfidence: 0.1,
		},
		Events: EventsConfig{
			Window:           2 * time.Hour,
			RadiusMeters:     1500,
			AttendanceWeight: 0.05,
			MaxEventBoost:    0.5,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Parse decodes a YAML configuration document over Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills the tunables whose zero value is invalid with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	c.Env = EnvFlagToEnvironment(c.Server.Env)
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}

	if c.Forecast.Ceiling == 0 {
		c.Forecast.Ceiling = 3.0
	}
	if c.Forecast.RequestDeadline == 0 {
		c.Forecast.RequestDeadline = 3 * time.Second
	}

	if len(c.Occupancy.CountThresholds) == 0 {
		c.Occupancy.CountThresholds = []int{20, 40, 60}
	}
	if len(c.Occupancy.RateThresholds) == 0 {
		c.Occupancy.RateThresholds = []float64{0.30, 0.60, 0.85}
	}

	w := &c.Weather
	defaultDuration(&w.Timeout, 2*time.Second)
	defaultFloat(&w.RainFactor, 1.3)
	defaultFloat(&w.SnowFactor, 1.5)
	defaultFloat(&w.ColdFactor, 1.2)
	defaultFloat(&w.HeatFactor, 1.1)
	defaultFloat(&w.HumidFactor, 1.1)

	tr := &c.Traffic
	defaultDuration(&tr.Timeout, 2*time.Second)
	defaultFloat(&tr.MinImpact, 0.7)
	defaultFloat(&tr.MaxImpact, 1.5)

	ev := &c.Events
	defaultDuration(&ev.Timeout, 2*time.Second)
	defaultFloat(&ev.HolidayFactor, 0.6)
	defaultFloat(&ev.MajorHolidayFactor, 0.3)

	defaultDuration(&c.LiveFeed.Timeout, 2*time.Second)
	if c.LiveFeed.MaxArrivals == 0 {
		c.LiveFeed.MaxArrivals = 2
	}
}

// Validate checks struct tags and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	if !sort.IntsAreSorted(c.Occupancy.CountThresholds) {
		return fmt.Errorf("invalid config: occupancy.countThresholds must be ascending")
	}
	if !sort.Float64sAreSorted(c.Occupancy.RateThresholds) {
		return fmt.Errorf("invalid config: occupancy.rateThresholds must be ascending")
	}

	seen := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if seen[r.ID] {
			return fmt.Errorf("invalid config: duplicate route %q", r.ID)
		}
		seen[r.ID] = true
		if len(r.CountThresholds) > 0 && !sort.IntsAreSorted(r.CountThresholds) {
			return fmt.Errorf("invalid config: route %q countThresholds must be ascending", r.ID)
		}
		if _, err := utils.DecodePath(r.ServiceArea); err != nil {
			return fmt.Errorf("invalid config: route %q serviceArea: %w", r.ID, err)
		}
	}
	return nil
}

func defaultFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func defaultDuration(v *time.Duration, def time.Duration) {
	if *v == 0 {
		*v = def
	}
}
