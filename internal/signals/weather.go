package signals

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"quietride.org/internal/appconf"
	"quietride.org/internal/logging"
)

// WeatherReading is the current-conditions payload served by the weather collaborator.
type WeatherReading struct {
	ObservedAt               time.Time `json:"observed_at" yaml:"observed_at"`
	Temperature              *float64  `json:"temperature" yaml:"temperature"`
	Humidity                 *float64  `json:"humidity" yaml:"humidity"`
	Precipitation            string    `json:"precipitation" yaml:"precipitation"`
	PrecipitationProbability float64   `json:"precipitation_probability" yaml:"precipitation_probability"`
	Sky                      string    `json:"sky" yaml:"sky"`
}

// WeatherDetails are the display fields of a weather signal.
type WeatherDetails struct {
	Description              string    `json:"description"`
	Temperature              *float64  `json:"temperature"`
	Humidity                 *float64  `json:"humidity"`
	IsRaining                bool      `json:"is_raining"`
	IsSnowing                bool      `json:"is_snowing"`
	PrecipitationProbability float64   `json:"precipitation_probability"`
	Reasons                  []string  `json:"reasons"`
	Recommendation           string    `json:"recommendation"`
	ObservedAt               time.Time `json:"observed_at"`
}

// IsRaining covers every liquid precipitation state.
func (r WeatherReading) IsRaining() bool {
	switch strings.ToLower(r.Precipitation) {
	case "rain", "sleet", "shower":
		return true
	}
	return false
}

// IsSnowing covers every frozen precipitation state.
func (r WeatherReading) IsSnowing() bool {
	switch strings.ToLower(r.Precipitation) {
	case "snow", "sleet":
		return true
	}
	return false
}

// Description is the precipitation state when there is one, else the sky state.
func (r WeatherReading) Description() string {
	if p := strings.ToLower(r.Precipitation); p != "" && p != "none" {
		return p
	}
	if r.Sky != "" {
		return strings.ToLower(r.Sky)
	}
	return "clear"
}

// WeatherAdapter turns current conditions into a ridership impact.
type WeatherAdapter struct {
	cfg    appconf.WeatherConfig
	client *http.Client
	logger *slog.Logger
}

func NewWeatherAdapter(cfg appconf.WeatherConfig, client *http.Client, logger *slog.Logger) *WeatherAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherAdapter{
		cfg:    cfg,
		client: newHTTPClient(client),
		logger: logger.With(slog.String("component", "weather_adapter")),
	}
}

func (a *WeatherAdapter) Source() Source { return Weather }

func (a *WeatherAdapter) Fetch(ctx context.Context, req Request) Signal {
	if a.cfg.URL == "" {
		return Neutral(Weather)
	}

	ctx, cancel := withTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	reading, err := fetchPayload[WeatherReading](ctx, req, a.client, string(Weather), a.cfg.URL,
		authHeaders(a.cfg.AuthHeaderKey, a.cfg.AuthHeaderValue))
	if err != nil {
		logging.LogUpstreamFailure(a.logger, string(Weather), err, slog.String("url", a.cfg.URL))
		return Neutral(Weather)
	}

	return WeatherSignal(*reading, req.Now, a.cfg)
}

// WeatherSignal maps a reading into a signal. Rain and snow raise ridership, as do
// temperature extremes and high humidity; confidence decays as the reading ages.
func WeatherSignal(r WeatherReading, now time.Time, cfg appconf.WeatherConfig) Signal {
	factor := 1.0
	var reasons []string

	if r.IsRaining() {
		factor *= cfg.RainFactor + r.PrecipitationProbability/100*cfg.RainPopWeight
		reasons = append(reasons, "rain increases ridership")
	}
	if r.IsSnowing() {
		factor *= cfg.SnowFactor
		reasons = append(reasons, "snow sharply increases ridership")
	}
	if r.Temperature != nil {
		switch {
		case *r.Temperature < cfg.ColdBelowC:
			factor *= cfg.ColdFactor
			reasons = append(reasons, "severe cold increases ridership")
		case *r.Temperature > cfg.HeatAboveC:
			factor *= cfg.HeatFactor
			reasons = append(reasons, "heat increases ridership")
		}
	}
	if r.Humidity != nil && *r.Humidity > cfg.HumidAbovePct {
		factor *= cfg.HumidFactor
		reasons = append(reasons, "high humidity increases ridership")
	}
	factor = round2(factor)

	explanation := "weather has no expected impact"
	if len(reasons) > 0 {
		explanation = strings.Join(reasons, ", ")
	}

	return Signal{
		Source:       Weather,
		ImpactFactor: factor,
		Confidence:   recencyConfidence(r.ObservedAt, now, cfg),
		Explanation:  explanation,
		Details: &WeatherDetails{
			Description:              r.Description(),
			Temperature:              r.Temperature,
			Humidity:                 r.Humidity,
			IsRaining:                r.IsRaining(),
			IsSnowing:                r.IsSnowing(),
			PrecipitationProbability: r.PrecipitationProbability,
			Reasons:                  reasons,
			Recommendation:           weatherRecommendation(factor),
			ObservedAt:               r.ObservedAt,
		},
	}
}

// recencyConfidence is MaxConfidence up to FreshFor, then falls linearly to
// MinConfidence at StaleAfter. Readings without a timestamp count as fresh.
func recencyConfidence(observedAt, now time.Time, cfg appconf.WeatherConfig) float64 {
	if observedAt.IsZero() {
		return cfg.MaxConfidence
	}
	age := now.Sub(observedAt)
	switch {
	case age <= cfg.FreshFor:
		return cfg.MaxConfidence
	case age >= cfg.StaleAfter || cfg.StaleAfter <= cfg.FreshFor:
		return cfg.MinConfidence
	}
	frac := float64(age-cfg.FreshFor) / float64(cfg.StaleAfter-cfg.FreshFor)
	return round2(cfg.MaxConfidence - (cfg.MaxConfidence-cfg.MinConfidence)*frac)
}

func weatherRecommendation(factor float64) string {
	pct := int(math.Round((factor - 1) * 100))
	switch {
	case factor >= 1.4:
		return fmt.Sprintf("%d%% busier than usual expected, leave earlier", pct)
	case factor >= 1.2:
		return fmt.Sprintf("%d%% busier than usual expected, allow extra time", pct)
	case factor >= 1.1:
		return "slightly busier than usual expected"
	default:
		return "weather is fine, usual pattern expected"
	}
}
