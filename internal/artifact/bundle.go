package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"surgecast/internal/features"
)

const (
	ScalerFile        = "scaler.json"
	SequenceFile      = "sequence_model.json"
	DecompositionFile = "decomposition_model.json"
)

var ErrMisaligned = errors.New("artifact feature contract mismatch")

// Bundle holds the three trained artifacts. It is built once at startup and
// never mutated afterwards, so it can be shared by every request.
type Bundle struct {
	Scaler        *MinMaxScaler
	Sequence      SequenceModel
	Decomposition DecompositionModel
	Source        string
	LoadedAt      time.Time
}

// Load reads all three artifacts from src and verifies the feature contract.
// Any failure is returned; callers treat it as fatal.
func Load(ctx context.Context, src Source) (*Bundle, error) {
	b := &Bundle{Source: src.String()}

	scaler := &MinMaxScaler{}
	if err := readJSON(ctx, src, ScalerFile, scaler); err != nil {
		return nil, err
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}
	b.Scaler = scaler

	seq, err := loadSequence(ctx, src)
	if err != nil {
		return nil, err
	}
	b.Sequence = seq

	dec, err := loadDecomposition(ctx, src)
	if err != nil {
		return nil, err
	}
	b.Decomposition = dec

	if err := b.Check(); err != nil {
		return nil, err
	}
	b.LoadedAt = time.Now()
	return b, nil
}

type kindHeader struct {
	Kind string `json:"kind"`
}

func loadSequence(ctx context.Context, src Source) (SequenceModel, error) {
	raw, err := readAll(ctx, src, SequenceFile)
	if err != nil {
		return nil, err
	}
	var h kindHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SequenceFile, err)
	}
	switch h.Kind {
	case "", "lstm":
		m := &LSTM{}
		if err := json.Unmarshal(raw, m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", SequenceFile, err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	case "remote":
		var cfg RemoteConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", SequenceFile, err)
		}
		return NewRemoteSequence(cfg)
	default:
		return nil, fmt.Errorf("%s: unknown model kind %q", SequenceFile, h.Kind)
	}
}

func loadDecomposition(ctx context.Context, src Source) (DecompositionModel, error) {
	raw, err := readAll(ctx, src, DecompositionFile)
	if err != nil {
		return nil, err
	}
	var h kindHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DecompositionFile, err)
	}
	switch h.Kind {
	case "", "trend", "prophet":
		m := &TrendModel{}
		if err := json.Unmarshal(raw, m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", DecompositionFile, err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	case "remote":
		var cfg RemoteConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", DecompositionFile, err)
		}
		return NewRemoteDecomposition(cfg)
	default:
		return nil, fmt.Errorf("%s: unknown model kind %q", DecompositionFile, h.Kind)
	}
}

func readAll(ctx context.Context, src Source, name string) ([]byte, error) {
	r, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func readJSON(ctx context.Context, src Source, name string, dest any) error {
	raw, err := readAll(ctx, src, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Alignment compares what each artifact was trained on with the encoder's
// column contract.
type Alignment struct {
	ExpectedFeatures  int      `json:"expected_features"`
	ScalerFeatures    int      `json:"scaler_features"`
	SequenceFeatures  int      `json:"lstm_features"`
	DecompositionRegs int      `json:"prophet_regressors"`
	Aligned           bool     `json:"aligned"`
	Problems          []string `json:"problems,omitempty"`
}

func (b *Bundle) Alignment() Alignment {
	a := Alignment{ExpectedFeatures: features.Count}
	want := features.Names[:]

	if b.Scaler == nil {
		a.Problems = append(a.Problems, "scaler not loaded")
	} else {
		a.ScalerFeatures = b.Scaler.Features()
		if a.ScalerFeatures != features.Count {
			a.Problems = append(a.Problems, fmt.Sprintf("scaler has %d features", a.ScalerFeatures))
		} else if names := b.Scaler.FeatureNames; len(names) > 0 && !slices.Equal(names, want) {
			a.Problems = append(a.Problems, "scaler feature order "+strings.Join(names, ",")+" differs from encoder order")
		}
	}

	if b.Sequence == nil {
		a.Problems = append(a.Problems, "sequence model not loaded")
	} else {
		steps, feats := b.Sequence.InputShape()
		a.SequenceFeatures = feats
		if feats != features.Count {
			a.Problems = append(a.Problems, fmt.Sprintf("sequence model expects %d features", feats))
		}
		if steps > 1 {
			a.Problems = append(a.Problems, fmt.Sprintf("sequence model expects %d timesteps, encoder provides 1", steps))
		}
	}

	if b.Decomposition == nil {
		a.Problems = append(a.Problems, "decomposition model not loaded")
	} else {
		regs := b.Decomposition.Regressors()
		a.DecompositionRegs = len(regs)
		got := slices.Clone(regs)
		exp := slices.Clone(want)
		slices.Sort(got)
		slices.Sort(exp)
		if !slices.Equal(got, exp) {
			a.Problems = append(a.Problems, "decomposition regressors "+strings.Join(regs, ",")+" differ from encoder columns")
		}
	}

	a.Aligned = len(a.Problems) == 0
	return a
}

// Check returns ErrMisaligned when the artifacts disagree with the encoder.
func (b *Bundle) Check() error {
	a := b.Alignment()
	if a.Aligned {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMisaligned, strings.Join(a.Problems, "; "))
}
