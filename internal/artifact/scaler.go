package artifact

import (
	"fmt"
	"math"
)

// MinMaxScaler applies per-feature statistics fitted at training time.
// Constant features (max == min) use a unit range, matching the trainer.
type MinMaxScaler struct {
	FeatureNames []string   `json:"feature_names"`
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

func (s *MinMaxScaler) validate() error {
	n := len(s.DataMin)
	if n == 0 {
		return fmt.Errorf("scaler: empty statistics")
	}
	if len(s.DataMax) != n {
		return fmt.Errorf("scaler: data_min has %d entries, data_max %d", n, len(s.DataMax))
	}
	if len(s.FeatureNames) != 0 && len(s.FeatureNames) != n {
		return fmt.Errorf("scaler: %d feature names for %d features", len(s.FeatureNames), n)
	}
	if s.FeatureRange == [2]float64{} {
		s.FeatureRange = [2]float64{0, 1}
	}
	if s.FeatureRange[1] <= s.FeatureRange[0] {
		return fmt.Errorf("scaler: invalid feature_range %v", s.FeatureRange)
	}
	return nil
}

func (s *MinMaxScaler) Features() int { return len(s.DataMin) }

func (s *MinMaxScaler) span(i int) float64 {
	d := s.DataMax[i] - s.DataMin[i]
	if d == 0 {
		return 1
	}
	return d
}

func (s *MinMaxScaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.DataMin) {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, got %d", ErrShape, len(s.DataMin), len(v))
	}
	lo, hi := s.FeatureRange[0], s.FeatureRange[1]
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x-s.DataMin[i])/s.span(i)*(hi-lo) + lo
	}
	return out, nil
}

func (s *MinMaxScaler) InverseTransform(v []float64) ([]float64, error) {
	if len(v) != len(s.DataMin) {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, got %d", ErrShape, len(s.DataMin), len(v))
	}
	lo, hi := s.FeatureRange[0], s.FeatureRange[1]
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x-lo)/(hi-lo)*s.span(i) + s.DataMin[i]
	}
	return out, nil
}

// RoundTrip scales and unscales v and returns the largest absolute error.
func (s *MinMaxScaler) RoundTrip(v []float64) (float64, error) {
	scaled, err := s.Transform(v)
	if err != nil {
		return 0, err
	}
	back, err := s.InverseTransform(scaled)
	if err != nil {
		return 0, err
	}
	var worst float64
	for i := range v {
		worst = math.Max(worst, math.Abs(back[i]-v[i]))
	}
	return worst, nil
}
