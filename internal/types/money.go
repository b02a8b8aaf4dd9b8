// README: Money value object shared by pricing and the prediction response.
package types

import "math"

// Money is an amount in minor units (paise for INR).
type Money struct {
	Amount   int64
	Currency string
}

// FromMajor rounds a major-unit amount (e.g. rupees) to the nearest minor unit.
func FromMajor(v float64, currency string) Money {
	return Money{Amount: int64(math.Round(v * 100)), Currency: currency}
}

// Major returns the amount in major units, exact to two decimals.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) Mul(f float64) Money {
	return Money{Amount: int64(math.Round(float64(m.Amount) * f)), Currency: m.Currency}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
