// README: Surge Estimator: one sequence-model call per request, floored at 1.0.
package surge

import (
	"context"
	"fmt"
	"math"

	"surgecast/internal/artifact"
	"surgecast/internal/features"
)

type Estimator struct {
	model artifact.SequenceModel
}

func NewEstimator(model artifact.SequenceModel) *Estimator {
	return &Estimator{model: model}
}

// Estimate runs the scaled row through the model as a single-step sequence.
func (e *Estimator) Estimate(ctx context.Context, scaled features.Vector) (float64, error) {
	if e.model == nil {
		return 0, fmt.Errorf("%w: sequence model not loaded", ErrModelInference)
	}
	out, err := e.model.Predict(ctx, artifact.Tensor{{scaled.Slice()}})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelInference, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: sequence model returned %d values", ErrModelInference, len(out))
	}
	y := out[0]
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: sequence model returned %v", ErrModelInference, y)
	}
	return math.Max(MinSurge, y), nil
}
