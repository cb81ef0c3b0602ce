package appconf

import (
	"net/netip"
	"time"
	_ "time/tzdata" // zone database for hosts without one
)

// Config is the root configuration for the advisory service. It is read from a YAML file
// and selectively overridden by command-line flags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Timezone  string          `yaml:"timezone" validate:"required"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Occupancy OccupancyConfig `yaml:"occupancy"`
	Weather   WeatherConfig   `yaml:"weather"`
	Traffic   TrafficConfig   `yaml:"traffic"`
	Events    EventsConfig    `yaml:"events"`
	LiveFeed  LiveFeedConfig  `yaml:"liveFeed"`
	Routes    []Route         `yaml:"routes" validate:"required,min=1,dive"`

	Env Environment `yaml:"-"`
}

type ServerConfig struct {
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
	Env  string `yaml:"env" validate:"omitempty,oneof=development test staging production"`
	// RateLimit is the number of requests per second allowed per client. Zero rejects
	// every request and a negative value disables limiting.
	RateLimit int `yaml:"rateLimit"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string `yaml:"trustedProxies" validate:"dive,cidr"`
}

// TrustedProxyPrefixes parses TrustedProxies, skipping entries that do not parse.
func (s ServerConfig) TrustedProxyPrefixes() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, cidr := range s.TrustedProxies {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

type BaselineConfig struct {
	Source         string        `yaml:"source" validate:"required"`
	ReloadInterval time.Duration `yaml:"reloadInterval" validate:"gte=0"`
}

type ForecastConfig struct {
	Ceiling           float64       `yaml:"ceiling" validate:"gt=0"`
	NeutralConfidence float64       `yaml:"neutralConfidence" validate:"gte=0,lte=1"`
	RequestDeadline   time.Duration `yaml:"requestDeadline" validate:"gt=0"`
}

type OccupancyConfig struct {
	// CountThresholds are the inclusive upper bounds of very_comfortable, comfortable and crowded.
	CountThresholds []int `yaml:"countThresholds" validate:"len=3,dive,gt=0"`
	// RateThresholds are the same bounds expressed as passengers/capacity.
	RateThresholds []float64 `yaml:"rateThresholds" validate:"len=3,dive,gt=0"`
}

type WeatherConfig struct {
	URL             string        `yaml:"url" validate:"omitempty,url"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	RainFactor      float64       `yaml:"rainFactor" validate:"gte=1"`
	RainPopWeight   float64       `yaml:"rainPopWeight" validate:"gte=0"`
	SnowFactor      float64       `yaml:"snowFactor" validate:"gte=1"`
	ColdBelowC      float64       `yaml:"coldBelowC"`
	ColdFactor      float64       `yaml:"coldFactor" validate:"gte=1"`
	HeatAboveC      float64       `yaml:"heatAboveC"`
	HeatFactor      float64       `yaml:"heatFactor" validate:"gte=1"`
	HumidAbovePct   float64       `yaml:"humidAbovePct"`
	HumidFactor     float64       `yaml:"humidFactor" validate:"gte=1"`
	FreshFor        time.Duration `yaml:"freshFor" validate:"gte=0"`
	StaleAfter      time.Duration `yaml:"staleAfter" validate:"gte=0"`
	MaxConfidence   float64       `yaml:"maxConfidence" validate:"gte=0,lte=1"`
	MinConfidence   float64       `yaml:"minConfidence" validate:"gte=0,lte=1"`
	AuthHeaderKey   string        `yaml:"authHeaderKey"`
	AuthHeaderValue string        `yaml:"authHeaderValue"`
}

type TrafficConfig struct {
	URL             string        `yaml:"url" validate:"omitempty,url"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	MinImpact       float64       `yaml:"minImpact" validate:"gt=0"`
	MaxImpact       float64       `yaml:"maxImpact" validate:"gtefield=MinImpact"`
	AuthHeaderKey   string        `yaml:"authHeaderKey"`
	AuthHeaderValue string        `yaml:"authHeaderValue"`
}

type EventsConfig struct {
	// Source is a URL or a local YAML/JSON file path.
	Source             string        `yaml:"source"`
	Timeout            time.Duration `yaml:"timeout" validate:"gte=0"`
	Window             time.Duration `yaml:"window" validate:"gte=0"`
	RadiusMeters       float64       `yaml:"radiusMeters" validate:"gte=0"`
	AttendanceWeight   float64       `yaml:"attendanceWeight" validate:"gte=0"`
	MaxEventBoost      float64       `yaml:"maxEventBoost" validate:"gte=0"`
	HolidayFactor      float64       `yaml:"holidayFactor" validate:"gt=0"`
	MajorHolidayFactor float64       `yaml:"majorHolidayFactor" validate:"gt=0"`
}

type LiveFeedConfig struct {
	TripUpdatesURL      string        `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	VehiclePositionsURL string        `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	AuthHeaderKey       string        `yaml:"authHeaderKey"`
	AuthHeaderValue     string        `yaml:"authHeaderValue"`
	Timeout             time.Duration `yaml:"timeout" validate:"gte=0"`
	// MaxArrivals caps the upcoming buses kept per route.
	MaxArrivals int `yaml:"maxArrivals" validate:"gte=0"`
}

// Enabled reports whether a trip updates feed is configured.
func (c LiveFeedConfig) Enabled() bool {
	return c.TripUpdatesURL != ""
}

// Route describes one served route: its load norms and the geography used to match events.
type Route struct {
	ID   string `yaml:"id" validate:"required,max=100"`
	Name string `yaml:"name"`
	// Direction is the headsign shown to riders for buses at StopID.
	Direction string `yaml:"direction"`
	// StopID is the GTFS stop the rider boards at; arrivals are read for this stop.
	StopID string `yaml:"stopId"`
	// NormalCapacity is the passenger load considered a 1.0x "normal" bus.
	NormalCapacity float64 `yaml:"normalCapacity" validate:"gt=0"`
	// Capacity is the physical capacity (seats + standing) of a bus on this route.
	Capacity int `yaml:"capacity" validate:"gte=0"`
	// ServiceArea is an encoded polyline tracing the route.
	ServiceArea string `yaml:"serviceArea"`
	// Roads names the traffic segments that affect this route; empty means all segments.
	Roads []string `yaml:"roads"`
	// CountThresholds overrides the global comfort thresholds for this route class.
	CountThresholds []int `yaml:"countThresholds" validate:"omitempty,len=3,dive,gt=0"`
}

// FindRoute returns the configured route with the given id.
func (c *Config) FindRoute(id string) (Route, bool) {
	for _, r := range c.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}

// Location returns the configured time zone, falling back to UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
