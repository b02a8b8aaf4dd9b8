package features

import "fmt"

// Scaler is the fitted min-max transform loaded from the training artifact.
type Scaler interface {
	Transform(v []float64) ([]float64, error)
}

// Encoder turns requests into scaled feature rows. It holds no statistics of
// its own and is safe for concurrent use.
type Encoder struct {
	peaks  PeakHours
	scaler Scaler
}

func NewEncoder(peaks PeakHours, scaler Scaler) *Encoder {
	if len(peaks) == 0 {
		peaks = DefaultPeakHours
	}
	return &Encoder{peaks: peaks, scaler: scaler}
}

func (e *Encoder) PeakHours() PeakHours {
	return e.peaks
}

// Raw validates the request and returns the unscaled row.
func (e *Encoder) Raw(r Request) (Vector, error) {
	if err := r.Validate(); err != nil {
		return Vector{}, err
	}
	return Columns(r.Hour, r.DayOfWeek, [3]float64{r.SurgeLag1, r.SurgeLag2, r.SurgeLag3}, e.peaks), nil
}

// Encode returns the scaled row handed to the sequence model.
func (e *Encoder) Encode(r Request) (Vector, error) {
	raw, err := e.Raw(r)
	if err != nil {
		return Vector{}, err
	}
	return e.Scale(raw)
}

func (e *Encoder) Scale(raw Vector) (Vector, error) {
	if e.scaler == nil {
		return Vector{}, fmt.Errorf("scaler not loaded")
	}
	scaled, err := e.scaler.Transform(raw.Slice())
	if err != nil {
		return Vector{}, fmt.Errorf("scale features: %w", err)
	}
	if len(scaled) != Count {
		return Vector{}, fmt.Errorf("scaler returned %d features, want %d", len(scaled), Count)
	}
	var out Vector
	copy(out[:], scaled)
	return out, nil
}
