package artifact

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	ModeAdditive       = "additive"
	ModeMultiplicative = "multiplicative"
)

// Regressor is one extra regressor with the standardization used in fitting.
type Regressor struct {
	Name string  `json:"name"`
	Mu   float64 `json:"mu"`
	Std  float64 `json:"std"`
	Coef float64 `json:"coef"`
	Mode string  `json:"mode"`
}

// TrendModel is a piecewise-linear trend with extra regressors:
//
//	yhat = trend * (1 + Σ multiplicative) + y_scale * Σ additive
//
// where trend = (k_t * t + m_t) * y_scale + floor and t is time since Start
// in units of TScaleSeconds.
type TrendModel struct {
	Kind          string      `json:"kind"`
	Start         time.Time   `json:"start"`
	TScaleSeconds float64     `json:"t_scale_seconds"`
	YScale        float64     `json:"y_scale"`
	Floor         float64     `json:"floor"`
	K             float64     `json:"k"`
	M             float64     `json:"m"`
	ChangepointsT []float64   `json:"changepoints_t"`
	Deltas        []float64   `json:"deltas"`
	Extra         []Regressor `json:"regressors"`
}

func (m *TrendModel) validate() error {
	if m.TScaleSeconds <= 0 {
		return fmt.Errorf("trend: t_scale_seconds must be positive")
	}
	if m.YScale == 0 {
		return fmt.Errorf("trend: y_scale must be non-zero")
	}
	if len(m.ChangepointsT) != len(m.Deltas) {
		return fmt.Errorf("trend: %d changepoints but %d deltas", len(m.ChangepointsT), len(m.Deltas))
	}
	for i := range m.Extra {
		r := &m.Extra[i]
		if r.Name == "" {
			return fmt.Errorf("trend: regressor %d has no name", i)
		}
		if r.Std == 0 {
			r.Std = 1
		}
		switch r.Mode {
		case "":
			r.Mode = ModeMultiplicative
		case ModeAdditive, ModeMultiplicative:
		default:
			return fmt.Errorf("trend: regressor %s has unknown mode %q", r.Name, r.Mode)
		}
	}
	return nil
}

func (m *TrendModel) Regressors() []string {
	names := make([]string, len(m.Extra))
	for i, r := range m.Extra {
		names[i] = r.Name
	}
	return names
}

func (m *TrendModel) trend(ts time.Time) float64 {
	t := ts.Sub(m.Start).Seconds() / m.TScaleSeconds
	k, off := m.K, m.M
	for i, cp := range m.ChangepointsT {
		if t >= cp {
			k += m.Deltas[i]
			off -= cp * m.Deltas[i]
		}
	}
	return (k*t+off)*m.YScale + m.Floor
}

func (m *TrendModel) PredictBatch(ctx context.Context, f Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.Rows) != f.Len() {
		return nil, fmt.Errorf("%w: %d timestamps, %d rows", ErrShape, f.Len(), len(f.Rows))
	}
	cols := make([][]float64, len(m.Extra))
	for i, r := range m.Extra {
		col, err := f.Column(r.Name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	out := make([]float64, f.Len())
	for row, ts := range f.Times {
		var mult, add float64
		for i, r := range m.Extra {
			x := (cols[i][row] - r.Mu) / r.Std
			if r.Mode == ModeAdditive {
				add += x * r.Coef
			} else {
				mult += x * r.Coef
			}
		}
		y := m.trend(ts)*(1+mult) + add*m.YScale
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: forecast row %d = %v", ErrNumerical, row, y)
		}
		out[row] = y
	}
	return out, nil
}
