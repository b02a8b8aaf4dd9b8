package artifact

import (
	"context"
	"fmt"
	"math"
)

// LSTM is a single recurrent layer followed by a one-unit dense head.
// Weights follow the Keras layout: gate blocks ordered input, forget, cell,
// output; sigmoid recurrent activation and tanh activation. Dropout is a
// training-only layer and has no inference weights.
type LSTM struct {
	Kind            string      `json:"kind"`
	Timesteps       int         `json:"timesteps"`
	InputFeatures   int         `json:"input_features"`
	Units           int         `json:"units"`
	Kernel          [][]float64 `json:"kernel"`           // [features][4*units]
	RecurrentKernel [][]float64 `json:"recurrent_kernel"` // [units][4*units]
	Bias            []float64   `json:"bias"`             // [4*units]
	DenseKernel     []float64   `json:"dense_kernel"`     // [units]
	DenseBias       float64     `json:"dense_bias"`
}

func (m *LSTM) validate() error {
	u := m.Units
	if u <= 0 || m.InputFeatures <= 0 {
		return fmt.Errorf("lstm: units=%d input_features=%d", u, m.InputFeatures)
	}
	if len(m.Kernel) != m.InputFeatures {
		return fmt.Errorf("lstm: kernel has %d rows, want %d", len(m.Kernel), m.InputFeatures)
	}
	for i, row := range m.Kernel {
		if len(row) != 4*u {
			return fmt.Errorf("lstm: kernel row %d has %d cols, want %d", i, len(row), 4*u)
		}
	}
	if len(m.RecurrentKernel) != u {
		return fmt.Errorf("lstm: recurrent_kernel has %d rows, want %d", len(m.RecurrentKernel), u)
	}
	for i, row := range m.RecurrentKernel {
		if len(row) != 4*u {
			return fmt.Errorf("lstm: recurrent_kernel row %d has %d cols, want %d", i, len(row), 4*u)
		}
	}
	if len(m.Bias) != 4*u {
		return fmt.Errorf("lstm: bias has %d entries, want %d", len(m.Bias), 4*u)
	}
	if len(m.DenseKernel) != u {
		return fmt.Errorf("lstm: dense_kernel has %d entries, want %d", len(m.DenseKernel), u)
	}
	return nil
}

func (m *LSTM) InputShape() (int, int) { return m.Timesteps, m.InputFeatures }

func (m *LSTM) Predict(ctx context.Context, x Tensor) ([]float64, error) {
	batch, steps, feats := x.Shape()
	if batch == 0 || steps == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrShape)
	}
	if feats != m.InputFeatures {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrShape, feats, m.InputFeatures)
	}
	if m.Timesteps > 0 && steps != m.Timesteps {
		return nil, fmt.Errorf("%w: got %d timesteps, model expects %d", ErrShape, steps, m.Timesteps)
	}

	u := m.Units
	out := make([]float64, batch)
	z := make([]float64, 4*u)
	h := make([]float64, u)
	c := make([]float64, u)
	for b, seq := range x {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clear(h)
		clear(c)
		for t, step := range seq {
			if len(step) != feats {
				return nil, fmt.Errorf("%w: batch %d step %d has %d features", ErrShape, b, t, len(step))
			}
			copy(z, m.Bias)
			for i, xi := range step {
				if xi == 0 {
					continue
				}
				for j, w := range m.Kernel[i] {
					z[j] += xi * w
				}
			}
			for i, hi := range h {
				if hi == 0 {
					continue
				}
				for j, w := range m.RecurrentKernel[i] {
					z[j] += hi * w
				}
			}
			for k := 0; k < u; k++ {
				in := sigmoid(z[k])
				forget := sigmoid(z[u+k])
				cand := math.Tanh(z[2*u+k])
				o := sigmoid(z[3*u+k])
				c[k] = forget*c[k] + in*cand
				h[k] = o * math.Tanh(c[k])
			}
		}
		y := m.DenseBias
		for k, w := range m.DenseKernel {
			y += h[k] * w
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: lstm output %v", ErrNumerical, y)
		}
		out[b] = y
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
