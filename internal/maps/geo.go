package maps

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Defaults for GeoRoutes: straight-line distance is stretched to approximate
// the road network, and duration assumes average city traffic.
const (
	DefaultRoadFactor = 1.3
	DefaultCitySpeed  = 22.0 // km/h
)

// LatLng is a point in decimal degrees.
type LatLng struct {
	Lat, Lng float64
}

// ParseLatLng reads "lat,lng". ok is false for anything else, such as an address.
func ParseLatLng(s string) (LatLng, bool) {
	a, b, found := strings.Cut(strings.TrimSpace(s), ",")
	if !found {
		return LatLng{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return LatLng{}, false
	}
	return LatLng{Lat: lat, Lng: lng}, true
}

// HaversineKm returns the great-circle distance in kilometres.
func HaversineKm(p, q LatLng) float64 {
	dLat := degreesToRadians(q.Lat - p.Lat)
	dLng := degreesToRadians(q.Lng - p.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(p.Lat))*math.Cos(degreesToRadians(q.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// GeoRoutes estimates routes between coordinates without calling any API.
// It is used when no Maps key is configured.
type GeoRoutes struct {
	RoadFactor float64
	SpeedKmh   float64
}

func NewGeoRoutes() GeoRoutes {
	return GeoRoutes{RoadFactor: DefaultRoadFactor, SpeedKmh: DefaultCitySpeed}
}

func (g GeoRoutes) Distance(ctx context.Context, origin, destination string) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return Route{}, ErrBadRequest
	}
	o, ok1 := ParseLatLng(origin)
	d, ok2 := ParseLatLng(destination)
	if !ok1 || !ok2 {
		return Route{}, fmt.Errorf("%w: without a maps api key both ends must be \"lat,lng\"", ErrBadRequest)
	}
	km := HaversineKm(o, d) * g.RoadFactor
	return Route{DistanceKm: km, DurationMin: km / g.SpeedKmh * 60}, nil
}
