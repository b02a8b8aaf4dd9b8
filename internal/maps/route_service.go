// README: Route distance/duration lookup via the Google Distance Matrix API.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

var (
	ErrBadRequest = errors.New("origin and destination are required")
	ErrNoRoute    = errors.New("no route found")
)

// Route is a driving distance and duration between two places.
type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// DistanceMatrix is the slice of *maps.Client the route service uses.
type DistanceMatrix interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client  DistanceMatrix
	cache   RouteCache
	log     zerolog.Logger
	onCache func(hit bool)
}

type Option func(*RouteService)

func WithCache(c RouteCache) Option {
	return func(s *RouteService) { s.cache = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *RouteService) { s.log = l }
}

// WithCacheObserver is called after every cache lookup.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(s *RouteService) { s.onCache = fn }
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string, opts ...Option) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return NewRouteServiceWithClient(client, opts...), nil
}

func NewRouteServiceWithClient(client DistanceMatrix, opts ...Option) *RouteService {
	s := &RouteService{client: client, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Distance returns the driving route between two free-form addresses.
// Cache errors are logged and never fail the lookup.
func (s *RouteService) Distance(ctx context.Context, origin, destination string) (Route, error) {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return Route{}, ErrBadRequest
	}

	key := CacheKey(origin, destination)
	if s.cache != nil {
		r, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("route cache get failed")
		}
		if s.onCache != nil {
			s.onCache(ok)
		}
		if ok {
			return r, nil
		}
	}

	r, err := s.lookup(ctx, origin, destination)
	if err != nil {
		return Route{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, r); err != nil {
			s.log.Warn().Err(err).Msg("route cache set failed")
		}
	}
	return r, nil
}

func (s *RouteService) lookup(ctx context.Context, origin, destination string) (Route, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
	}
	resp, err := s.client.DistanceMatrix(ctx, req)
	if err != nil {
		return Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return Route{}, ErrNoRoute
	}
	el := resp.Rows[0].Elements[0]
	if el == nil {
		return Route{}, ErrNoRoute
	}
	if el.Status != "OK" {
		return Route{}, fmt.Errorf("%w: element status %s", ErrNoRoute, el.Status)
	}
	return Route{
		DistanceKm:  float64(el.Distance.Meters) / 1000,
		DurationMin: el.Duration.Minutes(),
	}, nil
}
