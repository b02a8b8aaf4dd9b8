// README: Entry point; loads config and artifacts, wires services, serves HTTP until signalled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // zone database for minimal images

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"surgecast/internal/bootstrap"
	"surgecast/internal/config"
	httptransport "surgecast/internal/http"
	"surgecast/internal/http/handlers"
	"surgecast/internal/infra"
	"surgecast/internal/logger"
	"surgecast/internal/maps"
	"surgecast/internal/modules/pricing"
	"surgecast/internal/modules/surge"
	"surgecast/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("surge-api exited")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	// Serving without models is pointless; any artifact problem stops startup.
	bundle, err := bootstrap.LoadBundle(ctx, cfg, log)
	if err != nil {
		return err
	}

	rec := observability.New()

	var rates pricing.RateSource
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		rates = pricing.NewStore(pool)
		log.Info().Msg("fare rates from postgres")
	}
	pricingSvc := bootstrap.NewPricing(cfg, rates)

	var routes handlers.RouteLookup
	if cfg.Maps.APIKey != "" {
		opts := []maps.Option{maps.WithLogger(log), maps.WithCacheObserver(rec.ObserveRouteCache)}
		if cfg.Redis.Addr != "" {
			rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
			if err != nil {
				return err
			}
			defer rdb.Close()
			opts = append(opts, maps.WithCache(maps.NewRedisRouteCache(rdb, cfg.Redis.RouteTTL)))
		}
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey, opts...)
		if err != nil {
			return err
		}
		routes = routeSvc
	} else {
		routes = maps.NewGeoRoutes()
		log.Warn().Msg("maps api key not set; fare comparison accepts lat,lng only")
	}

	surgeSvc := bootstrap.NewSurgeService(cfg, bundle, pricingSvc,
		surge.WithLogger(log),
		surge.WithRecorder(rec),
	)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Predictor:         surgeSvc,
		Pricing:           pricingSvc,
		Routes:            routes,
		Metrics:           rec,
		Gatherer:          rec.Registry,
		Logger:            log,
		RateLimitRPS:      cfg.HTTP.RateLimitRPS,
		RateLimitBurst:    cfg.HTTP.RateLimitBurst,
		LegacyErrorStatus: cfg.HTTP.LegacyErrorStatus,
	})

	return httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log).Run(ctx)
}
