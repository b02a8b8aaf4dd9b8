// README: Shared wiring from Config to artifacts, pricing and the prediction service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"surgecast/internal/artifact"
	"surgecast/internal/config"
	"surgecast/internal/features"
	"surgecast/internal/infra"
	"surgecast/internal/modules/pricing"
	"surgecast/internal/modules/surge"
	"surgecast/internal/types"
)

// ArtifactSource resolves the configured location to a local or GCS source.
// The returned closer releases the storage client, if any.
func ArtifactSource(ctx context.Context, cfg config.Config) (artifact.Source, func() error, error) {
	loc := cfg.Artifacts.Location
	if !artifact.IsGCS(loc) {
		return artifact.DirSource{Dir: loc}, func() error { return nil }, nil
	}
	client, err := infra.NewGCS(ctx, cfg.Artifacts.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	src, err := artifact.NewGCSSource(client, loc)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return src, client.Close, nil
}

// LoadBundle loads and checks all artifacts from the configured location.
func LoadBundle(ctx context.Context, cfg config.Config, log zerolog.Logger) (*artifact.Bundle, error) {
	src, closeSrc, err := ArtifactSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	b, err := artifact.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load artifacts from %s: %w", src, err)
	}
	a := b.Alignment()
	log.Info().
		Str("source", b.Source).
		Int("expected_features", a.ExpectedFeatures).
		Int("lstm_features", a.SequenceFeatures).
		Int("prophet_regressors", a.DecompositionRegs).
		Msg("artifacts loaded")
	return b, nil
}

func PeakHours(cfg config.Config) features.PeakHours {
	out := make(features.PeakHours, len(cfg.Forecast.PeakHours))
	for i, w := range cfg.Forecast.PeakHours {
		out[i] = features.PeakWindow{Start: w.Start, End: w.End}
	}
	return out
}

// NewPricing returns the pricing service; rates is nil when no database is configured.
func NewPricing(cfg config.Config, rates pricing.RateSource) *pricing.Service {
	return pricing.NewService(rates, types.FromMajor(cfg.Pricing.BasePrice, cfg.Pricing.Currency))
}

func NewSurgeService(cfg config.Config, b *artifact.Bundle, p surge.Pricing, opts ...surge.Option) *surge.Service {
	return surge.NewService(b, p, surge.Options{
		PeakHours:      PeakHours(cfg),
		Threshold:      cfg.Forecast.SurgeThreshold,
		DropWindow:     cfg.Forecast.DropWindow,
		Horizon:        cfg.Forecast.Horizon,
		ResponsePoints: cfg.Forecast.ResponsePoints,
		Location:       cfg.Forecast.Location(),
		Concurrency:    cfg.Inference.Concurrency,
		Timeout:        cfg.Inference.Timeout,
		CurrencySymbol: cfg.Pricing.CurrencySymbol,
	}, opts...)
}
