// README: Pricing service: surge-adjusted price quotes and provider fare comparison.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"surgecast/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// RateSource lists the active provider rates. *Store implements it.
type RateSource interface {
	ListRates(ctx context.Context) ([]Rate, error)
}

type Service struct {
	rates RateSource
	base  types.Money
}

// NewService builds a pricing service around the base fare. rates may be nil,
// in which case DefaultRates are used for fare comparison.
func NewService(rates RateSource, base types.Money) *Service {
	return &Service{rates: rates, base: base}
}

func (s *Service) Base() types.Money {
	return s.base
}

// Quote is the base price scaled by the surge multiplier.
func (s *Service) Quote(surge float64) types.Money {
	return s.base.Mul(surge)
}

// Savings is what a rider saves by waiting for the surge to fall from one
// multiplier to another.
func (s *Service) Savings(from, to float64) types.Money {
	return s.base.Mul(from - to)
}

// Estimate prices a route with every provider rate, cheapest first.
func (s *Service) Estimate(ctx context.Context, distanceKm, durationMin float64) (FareEstimate, error) {
	if distanceKm < 0 || durationMin < 0 {
		return FareEstimate{}, ErrBadRequest
	}
	rates, err := s.listRates(ctx)
	if err != nil {
		return FareEstimate{}, err
	}

	fares := make([]FareQuote, 0, len(rates))
	for _, r := range rates {
		fares = append(fares, FareQuote{Provider: r.Provider, Type: r.RideType, Fare: r.Fare(distanceKm, durationMin)})
	}
	sort.SliceStable(fares, func(i, j int) bool { return fares[i].Fare < fares[j].Fare })

	return FareEstimate{
		Distance:       fmt.Sprintf("%.2f km", distanceKm),
		Duration:       fmt.Sprintf("%.2f mins", durationMin),
		Fares:          fares,
		Recommendation: fares[0],
	}, nil
}

func (s *Service) listRates(ctx context.Context) ([]Rate, error) {
	if s.rates == nil {
		return DefaultRates, nil
	}
	rates, err := s.rates.ListRates(ctx)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return DefaultRates, nil
	}
	return rates, nil
}

func round2(v float64) float64 {
	return types.Round2(v)
}
