// README: Pricing rate definitions and the fare comparison shapes.
package pricing

// Rate is one provider's linear fare formula in major units.
type Rate struct {
	Provider string
	RideType string
	BaseFare float64
	PerKm    float64
	PerMin   float64
}

// Fare applies the rate to a route, rounded to two decimals.
func (r Rate) Fare(distanceKm, durationMin float64) float64 {
	return round2(r.BaseFare + distanceKm*r.PerKm + durationMin*r.PerMin)
}

// DefaultRates are used when no rate table is configured or it is empty.
var DefaultRates = []Rate{
	{Provider: "Uber", RideType: "Auto", BaseFare: 30, PerKm: 9, PerMin: 1.5},
	{Provider: "Ola", RideType: "Sedan", BaseFare: 50, PerKm: 10, PerMin: 2},
	{Provider: "Rapido", RideType: "Bike", BaseFare: 20, PerKm: 8, PerMin: 1},
	{Provider: "Namma Yatri", RideType: "Auto", BaseFare: 25, PerKm: 7.5, PerMin: 1.2},
}

type FareQuote struct {
	Provider string  `json:"provider"`
	Type     string  `json:"type"`
	Fare     float64 `json:"fare"`
}

type FareEstimate struct {
	Distance       string      `json:"distance"`
	Duration       string      `json:"duration"`
	Fares          []FareQuote `json:"fares"`
	Recommendation FareQuote   `json:"recommendation"`
}
