// README: Feature Encoder: cyclical time, sqrt lags and peak/weekend flags in training column order.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Count is the width of every feature row the scaler and both models consume.
const Count = 9

// Names is the training-time column order. The scaler artifact and the
// decomposition model's regressors are checked against it at load.
var Names = [Count]string{
	"hour_sin", "hour_cos",
	"day_sin", "day_cos",
	"surge_lag_1", "surge_lag_2", "surge_lag_3",
	"is_peak", "is_weekend",
}

// Column indexes into a Vector.
const (
	HourSin = iota
	HourCos
	DaySin
	DayCos
	Lag1
	Lag2
	Lag3
	IsPeak
	IsWeekend
)

// The trained artifacts were fitted with these divisors; 24 and 7 would
// shift every encoded value.
const (
	hourDivisor = 23.0
	dayDivisor  = 6.0
)

var (
	ErrNegativeLag = errors.New("surge lag must be non-negative")
	ErrOutOfRange  = errors.New("field out of range")
)

type Vector [Count]float64

func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// Request carries the raw inbound fields. DayOfWeek is 0=Monday..6=Sunday.
type Request struct {
	Hour      int
	DayOfWeek int
	SurgeLag1 float64
	SurgeLag2 float64
	SurgeLag3 float64
}

func (r Request) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrOutOfRange, r.Hour)
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week %d", ErrOutOfRange, r.DayOfWeek)
	}
	for i, lag := range [3]float64{r.SurgeLag1, r.SurgeLag2, r.SurgeLag3} {
		if lag < 0 || math.IsNaN(lag) || math.IsInf(lag, 0) {
			return fmt.Errorf("%w: surge_lag_%d=%v", ErrNegativeLag, i+1, lag)
		}
	}
	return nil
}

// PeakWindow is an inclusive hour range.
type PeakWindow struct {
	Start int
	End   int
}

type PeakHours []PeakWindow

// DefaultPeakHours are the morning and evening rush windows.
var DefaultPeakHours = PeakHours{{Start: 7, End: 9}, {Start: 16, End: 19}}

func (p PeakHours) Contains(hour int) bool {
	for _, w := range p {
		if w.Start <= hour && hour <= w.End {
			return true
		}
	}
	return false
}

// Weekday converts Go's Sunday-first weekday to the Monday-first index used in training.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Columns builds one unscaled row. lags are raw surge values; each is
// square-rooted. Callers validate lags first.
func Columns(hour, day int, lags [3]float64, peaks PeakHours) Vector {
	hourRad := 2 * math.Pi * float64(hour) / hourDivisor
	dayRad := 2 * math.Pi * float64(day) / dayDivisor

	var v Vector
	v[HourSin] = math.Sin(hourRad)
	v[HourCos] = math.Cos(hourRad)
	v[DaySin] = math.Sin(dayRad)
	v[DayCos] = math.Cos(dayRad)
	v[Lag1] = math.Sqrt(lags[0])
	v[Lag2] = math.Sqrt(lags[1])
	v[Lag3] = math.Sqrt(lags[2])
	if peaks.Contains(hour) {
		v[IsPeak] = 1
	}
	if day >= 5 {
		v[IsWeekend] = 1
	}
	return v
}
