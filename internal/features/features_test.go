package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityScaler returns its input unchanged.
type identityScaler struct{ calls int }

func (s *identityScaler) Transform(v []float64) ([]float64, error) {
	s.calls++
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

type shortScaler struct{}

func (shortScaler) Transform(v []float64) ([]float64, error) { return v[:3], nil }

func TestEncode_PeakWeekdayScenario(t *testing.T) {
	enc := NewEncoder(nil, &identityScaler{})
	v, err := enc.Encode(Request{Hour: 8, DayOfWeek: 1, SurgeLag1: 1.2, SurgeLag2: 1.1, SurgeLag3: 1.0})
	require.NoError(t, err)

	assert.Equal(t, 1.0, v[IsPeak])
	assert.Equal(t, 0.0, v[IsWeekend])
	for _, i := range []int{Lag1, Lag2, Lag3} {
		assert.False(t, math.IsNaN(v[i]) || math.IsInf(v[i], 0), "lag %d not finite", i)
	}
	assert.InDelta(t, math.Sqrt(1.2), v[Lag1], 1e-12)
	assert.InDelta(t, math.Sqrt(1.1), v[Lag2], 1e-12)
	assert.InDelta(t, 1.0, v[Lag3], 1e-12)
	assert.InDelta(t, math.Sin(2*math.Pi*8/23), v[HourSin], 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*1/6), v[DayCos], 1e-12)
}

func TestEncode_ZeroLagsOffPeak(t *testing.T) {
	enc := NewEncoder(nil, &identityScaler{})
	v, err := enc.Encode(Request{Hour: 3, DayOfWeek: 2})
	require.NoError(t, err)

	assert.Equal(t, 0.0, v[IsPeak])
	assert.Equal(t, 0.0, v[IsWeekend])
	assert.Equal(t, 0.0, v[Lag1])
	assert.Equal(t, 0.0, v[Lag2])
	assert.Equal(t, 0.0, v[Lag3])
}

func TestEncode_Deterministic(t *testing.T) {
	enc := NewEncoder(nil, &identityScaler{})
	req := Request{Hour: 17, DayOfWeek: 6, SurgeLag1: 2.5, SurgeLag2: 1.8, SurgeLag3: 1.3}
	a, err := enc.Encode(req)
	require.NoError(t, err)
	b, err := enc.Encode(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1.0, a[IsWeekend])
	assert.Equal(t, 1.0, a[IsPeak])
}

func TestEncode_NegativeLagSkipsScaler(t *testing.T) {
	s := &identityScaler{}
	enc := NewEncoder(nil, s)
	_, err := enc.Encode(Request{Hour: 8, DayOfWeek: 1, SurgeLag1: 1, SurgeLag2: -0.1, SurgeLag3: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeLag))
	assert.Zero(t, s.calls)
}

func TestEncode_NonFiniteLagRejected(t *testing.T) {
	s := &identityScaler{}
	enc := NewEncoder(nil, s)
	for _, lag := range []float64{math.Inf(1), math.NaN()} {
		_, err := enc.Encode(Request{Hour: 8, DayOfWeek: 1, SurgeLag1: lag, SurgeLag2: 1, SurgeLag3: 1})
		assert.ErrorIs(t, err, ErrNegativeLag)
	}
	assert.Zero(t, s.calls)
}

func TestEncode_OutOfRange(t *testing.T) {
	enc := NewEncoder(nil, &identityScaler{})
	for _, r := range []Request{{Hour: 24}, {Hour: -1}, {DayOfWeek: 7}} {
		_, err := enc.Encode(r)
		assert.ErrorIs(t, err, ErrOutOfRange)
	}
}

func TestEncode_ScalerWidthMismatch(t *testing.T) {
	enc := NewEncoder(nil, shortScaler{})
	_, err := enc.Encode(Request{Hour: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOutOfRange)
}

func TestPeakHours_InclusiveBounds(t *testing.T) {
	for hour, want := range map[int]bool{6: false, 7: true, 9: true, 10: false, 15: false, 16: true, 19: true, 20: false} {
		assert.Equal(t, want, DefaultPeakHours.Contains(hour), "hour %d", hour)
	}
	custom := NewEncoder(PeakHours{{Start: 22, End: 23}}, &identityScaler{})
	v, err := custom.Raw(Request{Hour: 8})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[IsPeak])
}

func TestWeekday_MondayFirst(t *testing.T) {
	monday := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, Weekday(monday))
	assert.Equal(t, 6, Weekday(monday.AddDate(0, 0, 6)))
}
