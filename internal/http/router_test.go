package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgecast/internal/modules/pricing"
	"surgecast/internal/modules/surge"
	"surgecast/internal/observability"
	"surgecast/internal/types"
)

type okPredictor struct{}

func (okPredictor) Predict(context.Context, surge.PredictionRequest) (surge.Response, error) {
	return surge.Response{CurrentSurge: 1.2, Forecast: []surge.ForecastEntry{}}, nil
}
func (okPredictor) Fallback(error) surge.Response { return surge.Response{Degraded: true} }
func (okPredictor) Health() surge.HealthReport    { return surge.HealthReport{Status: "healthy"} }

func newTestRouter(rps float64, burst int) (*gin.Engine, *observability.Recorder) {
	gin.SetMode(gin.TestMode)
	rec := observability.New()
	r := NewRouter(RouterDeps{
		Predictor:      okPredictor{},
		Pricing:        pricing.NewService(nil, types.FromMajor(150, "INR")),
		Metrics:        rec,
		Gatherer:       rec.Registry,
		Logger:         zerolog.Nop(),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	})
	return r, rec
}

const body = `{"hour":8,"day_of_week":1,"surge_lag_1":1.2,"surge_lag_2":1.1,"surge_lag_3":1.0}`

func post(r http.Handler, path, b string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PredictAndMetrics(t *testing.T) {
	r, _ := newTestRouter(0, 0)

	w := post(r, "/predict", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `surgecast_http_requests_total{method="POST",route="/predict",status="200"} 1`)
}

func TestRouter_RateLimitSparesHealth(t *testing.T) {
	r, _ := newTestRouter(0.001, 1)

	assert.Equal(t, http.StatusOK, post(r, "/predict", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, "/predict", body).Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_FaresWithoutMaps(t *testing.T) {
	r, _ := newTestRouter(0, 0)
	w := post(r, "/api/v1/fares/estimate", `{"source":"a","destination":"b"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
