// README: Drop Forecaster: hourly decomposition-model forecast from the next full hour.
package surge

import (
	"context"
	"fmt"
	"math"
	"time"

	"surgecast/internal/artifact"
	"surgecast/internal/features"
)

const DefaultHorizon = 24

type Forecaster struct {
	model   artifact.DecompositionModel
	peaks   features.PeakHours
	horizon int
}

func NewForecaster(model artifact.DecompositionModel, peaks features.PeakHours, horizon int) *Forecaster {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if len(peaks) == 0 {
		peaks = features.DefaultPeakHours
	}
	return &Forecaster{model: model, peaks: peaks, horizon: horizon}
}

// nextHour is the first whole hour strictly after now, in now's location.
// Truncate would round in UTC, which breaks half-hour zones like Asia/Kolkata.
func nextHour(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, now.Hour(), 0, 0, 0, now.Location()).Add(time.Hour)
}

// Frame builds the future rows. The lag columns are held constant across the
// horizon: the current estimate stands in for lag 1 and the request's first
// two lags shift down one slot.
func (f *Forecaster) Frame(now time.Time, current float64, req PredictionRequest) artifact.Frame {
	lags := [3]float64{current, req.SurgeLag1, req.SurgeLag2}
	start := nextHour(now)

	fr := artifact.Frame{
		Times: make([]time.Time, f.horizon),
		Names: features.Names[:],
		Rows:  make([][]float64, f.horizon),
	}
	for i := range f.horizon {
		ts := start.Add(time.Duration(i) * time.Hour)
		fr.Times[i] = ts
		fr.Rows[i] = features.Columns(ts.Hour(), features.Weekday(ts), lags, f.peaks).Slice()
	}
	return fr
}

func (f *Forecaster) Forecast(ctx context.Context, now time.Time, current float64, req PredictionRequest) ([]ForecastPoint, error) {
	if f.model == nil {
		return nil, fmt.Errorf("%w: decomposition model not loaded", ErrModelInference)
	}
	fr := f.Frame(now, current, req)
	yhat, err := f.model.PredictBatch(ctx, fr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInference, err)
	}
	if len(yhat) != f.horizon {
		return nil, fmt.Errorf("%w: decomposition model returned %d points, want %d", ErrModelInference, len(yhat), f.horizon)
	}

	points := make([]ForecastPoint, f.horizon)
	for i, y := range yhat {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: forecast point %d is %v", ErrModelInference, i, y)
		}
		points[i] = ForecastPoint{Time: fr.Times[i], Surge: y}
	}
	return points, nil
}
