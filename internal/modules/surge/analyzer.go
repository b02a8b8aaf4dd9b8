// README: Drop Analyzer: volatility-adjusted threshold, best drop in the window, rider message.
package surge

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"surgecast/internal/types"
)

const (
	DefaultThreshold  = 0.15
	DefaultDropWindow = 6 * time.Hour
)

type Analyzer struct {
	threshold float64
	window    time.Duration
}

func NewAnalyzer(threshold float64, window time.Duration) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultDropWindow
	}
	return &Analyzer{threshold: threshold, window: window}
}

// Analysis is the outcome of scanning one forecast. Best is nil when no point
// in the window clears the threshold.
type Analysis struct {
	Current    float64
	Threshold  float64
	Volatility float64
	Best       *DropCandidate
	Lowest     ForecastPoint
}

// Volatility is the absolute mean of successive differences. The mean of
// differences telescopes to (last-first)/(n-1), so this measures net drift
// rather than spread.
func Volatility(points []ForecastPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(points); i++ {
		sum += points[i].Surge - points[i-1].Surge
	}
	return math.Abs(sum / float64(len(points)-1))
}

// Threshold is the minimum drop that counts. It grows with the current surge
// and with forecast volatility and never falls below the fixed floor.
func (a *Analyzer) Threshold(current, volatility float64) float64 {
	return math.Max(a.threshold, current*0.1+volatility*2)
}

func (a *Analyzer) Analyze(current float64, points []ForecastPoint, now time.Time) Analysis {
	vol := Volatility(points)
	an := Analysis{
		Current:    current,
		Volatility: vol,
		Threshold:  a.Threshold(current, vol),
	}

	limit := now.Add(a.window)
	for i, p := range points {
		if i == 0 || p.Surge < an.Lowest.Surge {
			an.Lowest = p
		}
		if p.Time.After(limit) {
			continue
		}
		drop := current - p.Surge
		if drop <= an.Threshold {
			continue
		}
		if an.Best == nil || drop > an.Best.DropAmount {
			an.Best = &DropCandidate{Time: p.Time, DropAmount: drop, NewSurge: p.Surge}
		}
	}
	return an
}

// DropTime returns the chosen drop time, or nil.
func (an Analysis) DropTime() *time.Time {
	if an.Best == nil {
		return nil
	}
	t := an.Best.Time
	return &t
}

// Message renders the rider-facing recommendation. savings is what waiting
// for the best drop saves; it is ignored when there is no drop.
func (an Analysis) Message(now time.Time, savings types.Money, symbol string) string {
	if an.Best == nil {
		return fmt.Sprintf("High demand continues. Next lowest surge: %.2f expected at %s",
			an.Lowest.Surge, an.Lowest.Time.Format(clockLayout))
	}

	wait := max(1, int(an.Best.Time.Sub(now).Minutes()))
	var urgency string
	if wait < 30 {
		urgency = "soon at " + an.Best.Time.Format(clockLayout)
	} else {
		urgency = fmt.Sprintf("in about %dh %dm", wait/60, wait%60)
	}
	return fmt.Sprintf("Best price drop expected %s. Estimated savings: %s%s (surge %.2f → %.2f)",
		urgency, symbol, formatAmount(savings.Major()), an.Current, an.Best.NewSurge)
}

// formatAmount prints the shortest decimal form, keeping one fractional
// digit on whole amounts ("60.0", "67.5", "67.45").
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) {
		s += ".0"
	}
	return s
}
