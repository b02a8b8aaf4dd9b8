// README: Prediction service: encode, estimate, forecast, analyze, assemble the response.
package surge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"surgecast/internal/artifact"
	"surgecast/internal/features"
	"surgecast/internal/types"
)

const DefaultResponsePoints = 6

// Pricing turns surge multipliers into prices. *pricing.Service implements it.
type Pricing interface {
	Base() types.Money
	Quote(surge float64) types.Money
	Savings(from, to float64) types.Money
}

// Recorder receives pipeline telemetry. *observability.Recorder implements it.
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	ObservePrediction(outcome string, surge float64, dropFound bool)
}

type Options struct {
	PeakHours      features.PeakHours
	Threshold      float64
	DropWindow     time.Duration
	Horizon        int
	ResponsePoints int
	Location       *time.Location
	Concurrency    int64
	Timeout        time.Duration
	CurrencySymbol string
}

type Service struct {
	bundle     *artifact.Bundle
	encoder    *features.Encoder
	estimator  *Estimator
	forecaster *Forecaster
	analyzer   *Analyzer
	pricing    Pricing
	sem        *semaphore.Weighted
	opts       Options
	now        func() time.Time
	log        zerolog.Logger
	metrics    Recorder
}

type Option func(*Service)

// WithClock replaces the wall clock used as "now" for forecasting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService wires the pipeline around a loaded bundle. bundle must not be nil.
func NewService(bundle *artifact.Bundle, pricing Pricing, opts Options, options ...Option) *Service {
	if opts.ResponsePoints <= 0 {
		opts.ResponsePoints = DefaultResponsePoints
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if len(opts.PeakHours) == 0 {
		opts.PeakHours = features.DefaultPeakHours
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	// a nil *MinMaxScaler must not become a non-nil interface
	var scaler features.Scaler
	if bundle.Scaler != nil {
		scaler = bundle.Scaler
	}

	s := &Service{
		bundle:     bundle,
		encoder:    features.NewEncoder(opts.PeakHours, scaler),
		estimator:  NewEstimator(bundle.Sequence),
		forecaster: NewForecaster(bundle.Decomposition, opts.PeakHours, opts.Horizon),
		analyzer:   NewAnalyzer(opts.Threshold, opts.DropWindow),
		pricing:    pricing,
		sem:        semaphore.NewWeighted(opts.Concurrency),
		opts:       opts,
		log:        zerolog.Nop(),
		metrics:    nopRecorder{},
	}
	loc := opts.Location
	s.now = func() time.Time { return time.Now().In(loc) }
	for _, o := range options {
		o(s)
	}
	return s
}

// Predict runs the whole pipeline for one request. Invalid input is rejected
// before any model runs.
func (s *Service) Predict(ctx context.Context, req PredictionRequest) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{}
			err = fmt.Errorf("%w: panic: %v", ErrSystem, r)
		}
		s.observe(resp, err)
	}()

	now := s.now().In(s.opts.Location)
	log := s.log.With().
		Int("hour", req.Hour).
		Int("day_of_week", req.DayOfWeek).
		Floats64("lags", []float64{req.SurgeLag1, req.SurgeLag2, req.SurgeLag3}).
		Logger()
	log.Info().Time("now", now).Msg("prediction request")

	start := time.Now()
	scaled, err := s.encoder.Encode(req)
	if err != nil {
		return Response{}, classify(err)
	}
	s.metrics.ObserveStage("encode", time.Since(start))

	points, current, err := s.infer(ctx, now, req, scaled)
	if err != nil {
		return Response{}, err
	}

	start = time.Now()
	an := s.analyzer.Analyze(current, points, now)
	var savings types.Money
	if an.Best != nil {
		savings = s.pricing.Savings(current, an.Best.NewSurge)
	}
	msg := an.Message(now, savings, s.opts.CurrencySymbol)
	s.metrics.ObserveStage("analyze", time.Since(start))

	resp = s.assemble(current, points, an, msg)
	log.Info().
		Float64("current_surge", resp.CurrentSurge).
		Float64("threshold", an.Threshold).
		Bool("drop_found", an.Best != nil).
		Msg("prediction served")
	return resp, nil
}

// infer runs both models under the inference limiter.
func (s *Service) infer(ctx context.Context, now time.Time, req PredictionRequest, scaled features.Vector) ([]ForecastPoint, float64, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, 0, fmt.Errorf("%w: waiting for inference slot: %w", ErrModelInference, err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	current, err := s.estimator.Estimate(ctx, scaled)
	if err != nil {
		return nil, 0, err
	}
	s.metrics.ObserveStage("estimate", time.Since(start))

	start = time.Now()
	points, err := s.forecaster.Forecast(ctx, now, current, req)
	if err != nil {
		return nil, 0, err
	}
	s.metrics.ObserveStage("forecast", time.Since(start))
	return points, current, nil
}

func (s *Service) assemble(current float64, points []ForecastPoint, an Analysis, msg string) Response {
	n := min(s.opts.ResponsePoints, len(points))
	entries := make([]ForecastEntry, n)
	for i, p := range points[:n] {
		entries[i] = ForecastEntry{
			Timestamp:      p.Time.Format(timestampLayout),
			PredictedSurge: types.Round2(p.Surge),
		}
	}

	var drop *string
	if t := an.DropTime(); t != nil {
		v := t.Format(timestampLayout)
		drop = &v
	}

	return Response{
		CurrentSurge:  types.Round2(current),
		BasePrice:     s.pricing.Base().Major(),
		CurrentPrice:  s.pricing.Quote(current).Major(),
		NextPriceDrop: drop,
		Forecast:      entries,
		Message:       msg,
	}
}

// Fallback is the safe default response served when Predict fails.
func (s *Service) Fallback(err error) Response {
	base := s.pricing.Base().Major()
	return Response{
		CurrentSurge: MinSurge,
		BasePrice:    base,
		CurrentPrice: base,
		Forecast:     []ForecastEntry{},
		Message:      "System error: " + errorText(err),
		Degraded:     true,
		ErrorKind:    Kind(err),
	}
}

func (s *Service) Health() HealthReport {
	a := s.bundle.Alignment()
	status := "healthy"
	if !a.Aligned {
		status = "degraded"
	}

	windows := s.encoder.PeakHours()
	peaks := make([][2]int, len(windows))
	for i, w := range windows {
		peaks[i] = [2]int{w.Start, w.End}
	}
	return HealthReport{
		Status:           status,
		ModelsLoaded:     s.bundle.Sequence != nil && s.bundle.Decomposition != nil && s.bundle.Scaler != nil,
		FeatureAlignment: a,
		Configuration: HealthConfig{
			PeakHours:      peaks,
			BasePrice:      s.pricing.Base().Major(),
			SurgeThreshold: s.opts.Threshold,
		},
		Artifacts: ArtifactInfo{Source: s.bundle.Source, LoadedAt: s.bundle.LoadedAt},
	}
}

func (s *Service) observe(resp Response, err error) {
	if err != nil {
		kind := Kind(err)
		ev := s.log.Error()
		if kind == KindInvalidInput {
			ev = s.log.Warn()
		}
		ev.Err(err).Str("error_kind", string(kind)).Msg("prediction failed")
		s.metrics.ObservePrediction(string(kind), 0, false)
		return
	}
	s.metrics.ObservePrediction("ok", resp.CurrentSurge, resp.NextPriceDrop != nil)
}

// classify tags encoder errors, keeping the cause. Anything other than a
// validation failure means the scaler artifact could not be applied.
func classify(err error) error {
	if Kind(err) == KindInvalidInput {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %w", ErrModelInference, err)
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration)      {}
func (nopRecorder) ObservePrediction(string, float64, bool) {}
