package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type fakeMatrix struct {
	el    *maps.DistanceMatrixElement
	err   error
	calls int
	last  *maps.DistanceMatrixRequest
}

func (f *fakeMatrix) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.calls++
	f.last = r
	if f.err != nil {
		return nil, f.err
	}
	resp := &maps.DistanceMatrixResponse{}
	if f.el != nil {
		resp.Rows = []maps.DistanceMatrixElementsRow{{Elements: []*maps.DistanceMatrixElement{f.el}}}
	}
	return resp, nil
}

type memCache struct {
	m      map[string]Route
	getErr error
	sets   int
}

func (c *memCache) Get(_ context.Context, key string) (Route, bool, error) {
	if c.getErr != nil {
		return Route{}, false, c.getErr
	}
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, r Route) error {
	c.sets++
	c.m[key] = r
	return nil
}

func okElement() *maps.DistanceMatrixElement {
	return &maps.DistanceMatrixElement{
		Status:   "OK",
		Distance: maps.Distance{Meters: 12345},
		Duration: 27*time.Minute + 30*time.Second,
	}
}

func TestDistance_ConvertsUnits(t *testing.T) {
	fm := &fakeMatrix{el: okElement()}
	s := NewRouteServiceWithClient(fm)

	r, err := s.Distance(context.Background(), "MG Road, Bengaluru", "Whitefield, Bengaluru")
	require.NoError(t, err)
	assert.InDelta(t, 12.345, r.DistanceKm, 1e-9)
	assert.InDelta(t, 27.5, r.DurationMin, 1e-9)
	assert.Equal(t, []string{"MG Road, Bengaluru"}, fm.last.Origins)
	assert.Equal(t, maps.TravelModeDriving, fm.last.Mode)
}

func TestDistance_RequiresBothEnds(t *testing.T) {
	s := NewRouteServiceWithClient(&fakeMatrix{el: okElement()})
	_, err := s.Distance(context.Background(), "  ", "Whitefield")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestDistance_ElementNotOK(t *testing.T) {
	s := NewRouteServiceWithClient(&fakeMatrix{el: &maps.DistanceMatrixElement{Status: "ZERO_RESULTS"}})
	_, err := s.Distance(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNoRoute)

	s = NewRouteServiceWithClient(&fakeMatrix{})
	_, err = s.Distance(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestDistance_APIError(t *testing.T) {
	s := NewRouteServiceWithClient(&fakeMatrix{err: errors.New("quota")})
	_, err := s.Distance(context.Background(), "a", "b")
	assert.ErrorContains(t, err, "quota")
}

func TestDistance_CacheHitSkipsAPI(t *testing.T) {
	fm := &fakeMatrix{el: okElement()}
	cache := &memCache{m: map[string]Route{}}
	var hits, misses int
	s := NewRouteServiceWithClient(fm, WithCache(cache), WithCacheObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))

	first, err := s.Distance(context.Background(), "Indiranagar", "Koramangala")
	require.NoError(t, err)
	second, err := s.Distance(context.Background(), " indiranagar ", "KORAMANGALA")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fm.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestDistance_CacheErrorFallsThrough(t *testing.T) {
	fm := &fakeMatrix{el: okElement()}
	s := NewRouteServiceWithClient(fm, WithCache(&memCache{m: map[string]Route{}, getErr: errors.New("redis down")}))
	_, err := s.Distance(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, fm.calls)
}

func TestCacheKey(t *testing.T) {
	k := CacheKey("A", "B")
	assert.Equal(t, k, CacheKey(" a ", "b"))
	assert.NotEqual(t, k, CacheKey("B", "A"))
	assert.Len(t, k, len(cachePrefix)+40)
}
