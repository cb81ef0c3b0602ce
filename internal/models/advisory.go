package models

import (
	"time"

	"quietride.org/internal/signals"
)

// ForecastEntry is the flat forecast payload of /api/forecast.
type ForecastEntry struct {
	Route                 string                 `json:"route"`
	GeneratedAt           time.Time              `json:"generated_at"`
	DayType               string                 `json:"day_type"`
	Operating             bool                   `json:"operating"`
	PredictedCongestion   float64                `json:"predicted_congestion"`
	Confidence            float64                `json:"confidence"`
	BasePrediction        float64                `json:"base_prediction"`
	WeatherImpact         float64                `json:"weather_impact"`
	TrafficImpact         float64                `json:"traffic_impact"`
	EventImpact           float64                `json:"event_impact"`
	Dominant              string                 `json:"dominant"`
	Recommendation        string                 `json:"recommendation"`
	Explanation           string                 `json:"explanation"`
	Events                []signals.MatchedEvent `json:"events"`
	EventRecommendation   string                 `json:"event_recommendation"`
	TrafficRecommendation string                 `json:"traffic_recommendation"`
	CongestedRoads        []string               `json:"congested_roads"`
	SmoothRoads           []string               `json:"smooth_roads"`
}

// WeatherEntry is the weather signal with its display fields.
type WeatherEntry struct {
	Weather                  string    `json:"weather"`
	Temperature              *float64  `json:"temperature"`
	Humidity                 *float64  `json:"humidity"`
	IsRaining                bool      `json:"is_raining"`
	IsSnowing                bool      `json:"is_snowing"`
	PrecipitationProbability float64   `json:"precipitation_probability"`
	ImpactFactor             float64   `json:"impact_factor"`
	Confidence               float64   `json:"confidence"`
	Reasons                  []string  `json:"reasons"`
	Recommendation           string    `json:"recommendation"`
	Available                bool      `json:"available"`
	ObservedAt               time.Time `json:"observed_at,omitempty"`
}
