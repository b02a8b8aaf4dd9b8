// README: Prediction request/response shapes and the forecast data model.
package surge

import (
	"time"

	"surgecast/internal/artifact"
	"surgecast/internal/features"
)

// MinSurge is the floor applied to every estimate.
const MinSurge = 1.0

const (
	timestampLayout = "2006-01-02 15:04"
	clockLayout     = "15:04"
)

// PredictionRequest is 0=Monday..6=Sunday for DayOfWeek.
type PredictionRequest = features.Request

// ForecastPoint is one hourly point forecast.
type ForecastPoint struct {
	Time  time.Time
	Surge float64
}

// DropCandidate is a forecast point far enough below the current surge to
// count as a price drop.
type DropCandidate struct {
	Time       time.Time
	DropAmount float64
	NewSurge   float64
}

type ForecastEntry struct {
	Timestamp      string  `json:"timestamp"`
	PredictedSurge float64 `json:"predicted_surge"`
}

type Response struct {
	CurrentSurge  float64         `json:"current_surge"`
	BasePrice     float64         `json:"base_price"`
	CurrentPrice  float64         `json:"current_price"`
	NextPriceDrop *string         `json:"next_price_drop"`
	Forecast      []ForecastEntry `json:"forecast"`
	Message       string          `json:"message"`
	Degraded      bool            `json:"degraded"`
	ErrorKind     ErrorKind       `json:"error_kind,omitempty"`
}

type HealthConfig struct {
	PeakHours      [][2]int `json:"peak_hours"`
	BasePrice      float64  `json:"base_price"`
	SurgeThreshold float64  `json:"surge_threshold"`
}

type ArtifactInfo struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

type HealthReport struct {
	Status           string             `json:"status"`
	ModelsLoaded     bool               `json:"models_loaded"`
	FeatureAlignment artifact.Alignment `json:"feature_alignment"`
	Configuration    HealthConfig       `json:"configuration"`
	Artifacts        ArtifactInfo       `json:"artifacts"`
}
