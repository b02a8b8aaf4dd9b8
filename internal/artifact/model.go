// README: Trained-artifact contracts: the sequence regressor and the decomposition forecaster.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrShape     = errors.New("input shape mismatch")
	ErrNumerical = errors.New("non-finite model output")
)

// Tensor is a [batch][timestep][feature] input.
type Tensor [][][]float64

func (t Tensor) Shape() (batch, timesteps, features int) {
	batch = len(t)
	if batch == 0 {
		return 0, 0, 0
	}
	timesteps = len(t[0])
	if timesteps == 0 {
		return batch, 0, 0
	}
	return batch, timesteps, len(t[0][0])
}

// SequenceModel is the short-horizon regressor. Predict returns one scalar
// per batch row.
type SequenceModel interface {
	Predict(ctx context.Context, x Tensor) ([]float64, error)
	InputShape() (timesteps, features int)
}

// Frame is a batch of future rows for the decomposition model. Rows[i] lines
// up with Times[i]; columns follow Names.
type Frame struct {
	Times []time.Time
	Names []string
	Rows  [][]float64
}

func (f Frame) Len() int { return len(f.Times) }

// Column returns one named column across all rows.
func (f Frame) Column(name string) ([]float64, error) {
	idx := -1
	for i, n := range f.Names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: frame has no column %q", ErrShape, name)
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		if len(row) != len(f.Names) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), len(f.Names))
		}
		out[i] = row[idx]
	}
	return out, nil
}

// DecompositionModel is the long-horizon forecaster. PredictBatch returns the
// point forecast for each frame row; uncertainty is not part of the contract.
type DecompositionModel interface {
	PredictBatch(ctx context.Context, f Frame) ([]float64, error)
	Regressors() []string
}
