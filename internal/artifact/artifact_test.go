package artifact

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgecast/internal/features"
)

func testScaler() *MinMaxScaler {
	return &MinMaxScaler{
		FeatureNames: features.Names[:],
		DataMin:      []float64{-1, -1, -0.9, -1, 1, 1, 1, 0, 0},
		DataMax:      []float64{1, 1, 0.9, 1, 2.3, 2.3, 2.3, 1, 1},
		FeatureRange: [2]float64{0, 1},
	}
}

// testLSTM has one unit and only biases, so the output is easy to derive by hand.
func testLSTM() *LSTM {
	u := 1
	kernel := make([][]float64, features.Count)
	for i := range kernel {
		kernel[i] = make([]float64, 4*u)
	}
	return &LSTM{
		Kind:            "lstm",
		Timesteps:       1,
		InputFeatures:   features.Count,
		Units:           u,
		Kernel:          kernel,
		RecurrentKernel: [][]float64{{0, 0, 0, 0}},
		Bias:            []float64{0.5, 1.0, 0.8, 0.2},
		DenseKernel:     []float64{1.5},
		DenseBias:       1.1,
	}
}

func testTrend() *TrendModel {
	regs := make([]Regressor, 0, features.Count)
	for _, n := range features.Names {
		regs = append(regs, Regressor{Name: n, Std: 1, Mode: ModeMultiplicative})
	}
	regs[features.IsPeak].Coef = 0.2
	regs[features.Lag1].Coef = 0.1
	regs[features.Lag1].Mu = 1
	return &TrendModel{
		Kind:          "trend",
		Start:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TScaleSeconds: 86400 * 100,
		YScale:        2,
		K:             0,
		M:             0.6,
		ChangepointsT: []float64{0.5},
		Deltas:        []float64{0.1},
		Extra:         regs,
	}
}

func writeJSONFile(t *testing.T, dir, name string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o600))
}

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeJSONFile(t, dir, ScalerFile, testScaler())
	writeJSONFile(t, dir, SequenceFile, testLSTM())
	writeJSONFile(t, dir, DecompositionFile, testTrend())
	return dir
}

func TestScaler_RoundTrip(t *testing.T) {
	s := testScaler()
	require.NoError(t, s.validate())

	raw := features.Columns(8, 1, [3]float64{1.2, 1.1, 1.0}, features.DefaultPeakHours)
	worst, err := s.RoundTrip(raw.Slice())
	require.NoError(t, err)
	assert.Less(t, worst, 1e-12)
}

func TestScaler_ConstantFeatureUsesUnitRange(t *testing.T) {
	s := &MinMaxScaler{DataMin: []float64{2, 0}, DataMax: []float64{2, 4}}
	require.NoError(t, s.validate())
	out, err := s.Transform([]float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-12)
	assert.InDelta(t, 0.25, out[1], 1e-12)
}

func TestScaler_WidthMismatch(t *testing.T) {
	s := testScaler()
	_, err := s.Transform([]float64{1, 2})
	assert.ErrorIs(t, err, ErrShape)
}

func TestLSTM_SingleStepMatchesGateEquations(t *testing.T) {
	m := testLSTM()
	require.NoError(t, m.validate())

	x := Tensor{{make([]float64, features.Count)}}
	got, err := m.Predict(context.Background(), x)
	require.NoError(t, err)
	require.Len(t, got, 1)

	i := sigmoid(0.5)
	c := i * math.Tanh(0.8)
	h := sigmoid(0.2) * math.Tanh(c)
	assert.InDelta(t, h*1.5+1.1, got[0], 1e-12)
}

func TestLSTM_ShapeMismatch(t *testing.T) {
	m := testLSTM()
	_, err := m.Predict(context.Background(), Tensor{{{1, 2, 3}}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = m.Predict(context.Background(), Tensor{make([][]float64, 2)})
	assert.ErrorIs(t, err, ErrShape)

	_, err = m.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestLSTM_ValidateRejectsBadWeights(t *testing.T) {
	m := testLSTM()
	m.Bias = m.Bias[:2]
	assert.Error(t, m.validate())
}

func TestTrend_PredictBatch(t *testing.T) {
	m := testTrend()
	require.NoError(t, m.validate())

	ts := time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC) // t = 0.1, before the changepoint
	row := features.Columns(8, features.Weekday(ts), [3]float64{1.44, 1, 1}, features.DefaultPeakHours)
	f := Frame{Times: []time.Time{ts}, Names: features.Names[:], Rows: [][]float64{row.Slice()}}

	got, err := m.PredictBatch(context.Background(), f)
	require.NoError(t, err)

	trend := 0.6 * 2
	mult := 0.2*1 + 0.1*(1.2-1)
	assert.InDelta(t, trend*(1+mult), got[0], 1e-9)
}

func TestTrend_ChangepointShiftsSlope(t *testing.T) {
	m := testTrend()
	require.NoError(t, m.validate())
	late := m.Start.Add(time.Duration(0.75 * m.TScaleSeconds * float64(time.Second)))
	// after the changepoint: k=0.1, m=0.6-0.5*0.1
	want := (0.1*0.75 + 0.6 - 0.05) * 2
	assert.InDelta(t, want, m.trend(late), 1e-9)
}

func TestTrend_MissingColumn(t *testing.T) {
	m := testTrend()
	require.NoError(t, m.validate())
	f := Frame{Times: []time.Time{m.Start}, Names: []string{"hour_sin"}, Rows: [][]float64{{0}}}
	_, err := m.PredictBatch(context.Background(), f)
	assert.ErrorIs(t, err, ErrShape)
}

func TestLoad_DirSource(t *testing.T) {
	dir := writeFixture(t)
	b, err := Load(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)

	a := b.Alignment()
	assert.True(t, a.Aligned)
	assert.Equal(t, 9, a.ExpectedFeatures)
	assert.Equal(t, 9, a.SequenceFeatures)
	assert.Equal(t, 9, a.DecompositionRegs)
	assert.False(t, b.LoadedAt.IsZero())
}

func TestLoad_MissingArtifact(t *testing.T) {
	dir := writeFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, DecompositionFile)))
	_, err := Load(context.Background(), DirSource{Dir: dir})
	assert.Error(t, err)
}

func TestLoad_ScalerOrderMismatch(t *testing.T) {
	dir := writeFixture(t)
	s := testScaler()
	s.FeatureNames = append([]string{}, features.Names[:]...)
	s.FeatureNames[0], s.FeatureNames[1] = s.FeatureNames[1], s.FeatureNames[0]
	writeJSONFile(t, dir, ScalerFile, s)

	_, err := Load(context.Background(), DirSource{Dir: dir})
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestLoad_RegressorSetMismatch(t *testing.T) {
	dir := writeFixture(t)
	m := testTrend()
	m.Extra = m.Extra[:8]
	writeJSONFile(t, dir, DecompositionFile, m)

	_, err := Load(context.Background(), DirSource{Dir: dir})
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestLoad_UnknownKind(t *testing.T) {
	dir := writeFixture(t)
	writeJSONFile(t, dir, SequenceFile, map[string]any{"kind": "transformer"})
	_, err := Load(context.Background(), DirSource{Dir: dir})
	assert.Error(t, err)
}

func TestRemoteSequence_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs [][][]float64 `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Inputs, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": []float64{1.7}})
	}))
	defer srv.Close()

	m, err := NewRemoteSequence(RemoteConfig{Kind: "remote", URL: srv.URL, Timesteps: 1, Features: 9})
	require.NoError(t, err)
	got, err := m.Predict(context.Background(), Tensor{{make([]float64, 9)}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.7}, got)
}

func TestRemoteDecomposition_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, err := NewRemoteDecomposition(RemoteConfig{Kind: "remote", URL: srv.URL, Regressors: features.Names[:]})
	require.NoError(t, err)
	row := make([]float64, 9)
	_, err = m.PredictBatch(context.Background(), Frame{Times: []time.Time{time.Now()}, Names: features.Names[:], Rows: [][]float64{row}})
	assert.Error(t, err)
}

func TestNewGCSSource_ParsesURI(t *testing.T) {
	s, err := NewGCSSource(nil, "gs://models/surge/v3/")
	require.NoError(t, err)
	assert.Equal(t, "gs://models/surge/v3", s.String())

	_, err = NewGCSSource(nil, "s3://models")
	assert.Error(t, err)
	_, err = NewGCSSource(nil, "gs:///x")
	assert.Error(t, err)
	assert.True(t, IsGCS("gs://a"))
}

func TestLoad_ShippedArtifacts(t *testing.T) {
	b, err := Load(context.Background(), DirSource{Dir: "../../artifacts"})
	require.NoError(t, err)
	assert.True(t, b.Alignment().Aligned)

	raw := features.Columns(8, 0, [3]float64{1.6, 1.4, 1.2}, features.DefaultPeakHours)
	scaled, err := b.Scaler.Transform(raw.Slice())
	require.NoError(t, err)
	y, err := b.Sequence.Predict(context.Background(), Tensor{{scaled}})
	require.NoError(t, err)
	require.Len(t, y, 1)
	assert.False(t, math.IsNaN(y[0]))
}
