// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"surgecast/internal/http/handlers"
	"surgecast/internal/http/middleware"
)

type RouterDeps struct {
	Predictor handlers.Predictor
	Pricing   handlers.FareEstimator
	Routes    handlers.RouteLookup // nil answers fare requests with 503
	Metrics   middleware.HTTPRecorder
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger

	RateLimitRPS      float64
	RateLimitBurst    int
	LegacyErrorStatus bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(deps.Logger), middleware.Recovery(), middleware.Logging())
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	predict := handlers.NewPredictHandler(deps.Predictor, deps.LegacyErrorStatus)
	r.GET("/health", predict.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("", middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))
	api.POST("/predict", predict.Predict)

	fares := handlers.NewFareHandler(deps.Routes, deps.Pricing)
	api.POST("/api/v1/fares/estimate", fares.Estimate)

	return r
}
