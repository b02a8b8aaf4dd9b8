// README: Prometheus metrics for HTTP traffic and the prediction pipeline.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns every collector. Each instance registers into its own
// registry so tests can build as many as they like.
type Recorder struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	stageDuration *prometheus.HistogramVec
	predictions   *prometheus.CounterVec
	dropsFound    prometheus.Counter
	currentSurge  prometheus.Histogram
	routeCache    *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		Registry: reg,
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surgecast_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surgecast_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "class"},
		),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "surgecast_http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surgecast_pipeline_stage_duration_seconds",
				Help:    "Duration of each prediction pipeline stage",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surgecast_predictions_total",
				Help: "Predictions served, by outcome",
			},
			[]string{"outcome"},
		),
		dropsFound: f.NewCounter(prometheus.CounterOpts{
			Name: "surgecast_price_drops_found_total",
			Help: "Predictions that recommended waiting for a drop",
		}),
		currentSurge: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "surgecast_current_surge",
			Help:    "Distribution of estimated current surge multipliers",
			Buckets: []float64{1, 1.1, 1.25, 1.5, 1.75, 2, 2.5, 3, 4},
		}),
		routeCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surgecast_route_cache_total",
				Help: "Route cache lookups, by result",
			},
			[]string{"result"},
		),
	}
}

func (r *Recorder) ObserveHTTP(route, method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method, StatusClass(status)).Observe(d.Seconds())
}

func (r *Recorder) InFlight(delta float64) {
	r.httpInFlight.Add(delta)
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObservePrediction counts one pipeline outcome. outcome is "ok" or an error kind.
func (r *Recorder) ObservePrediction(outcome string, surge float64, dropFound bool) {
	r.predictions.WithLabelValues(outcome).Inc()
	if outcome != "ok" {
		return
	}
	r.currentSurge.Observe(surge)
	if dropFound {
		r.dropsFound.Inc()
	}
}

func (r *Recorder) ObserveRouteCache(hit bool) {
	if hit {
		r.routeCache.WithLabelValues("hit").Inc()
		return
	}
	r.routeCache.WithLabelValues("miss").Inc()
}

func StatusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
