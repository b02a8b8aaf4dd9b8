package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"surgecast/internal/bootstrap"
	"surgecast/internal/features"
	"surgecast/internal/modules/surge"
)

func newPredictCmd() *cobra.Command {
	var (
		hour int
		day  int
		lags string
		now  string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction against local artifacts and print the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := parseLags(lags)
			if err != nil {
				return err
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			bundle, err := bootstrap.LoadBundle(ctx, cfg, log)
			if err != nil {
				return err
			}

			ref := time.Now()
			if now != "" {
				if ref, err = time.Parse(time.RFC3339, now); err != nil {
					return fmt.Errorf("--now: %w", err)
				}
			}
			ref = ref.In(cfg.Forecast.Location())
			hour, day = requestSlot(ref, hour, day, cmd.Flags().Changed("hour"), cmd.Flags().Changed("day"))

			svc := bootstrap.NewSurgeService(cfg, bundle, bootstrap.NewPricing(cfg, nil),
				surge.WithLogger(log), surge.WithClock(func() time.Time { return ref }))

			resp, perr := svc.Predict(ctx, surge.PredictionRequest{
				Hour:      hour,
				DayOfWeek: day,
				SurgeLag1: l[0],
				SurgeLag2: l[1],
				SurgeLag3: l[2],
			})
			if perr != nil {
				resp = svc.Fallback(perr)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			return perr
		},
	}
	cmd.Flags().IntVar(&hour, "hour", 0, "hour of day, 0-23 (default: from --now in the forecast zone)")
	cmd.Flags().IntVar(&day, "day", 0, "day of week, 0=Monday (default: from --now in the forecast zone)")
	cmd.Flags().StringVar(&lags, "lags", "1.0,1.0,1.0", "last three surge multipliers, newest first")
	cmd.Flags().StringVar(&now, "now", "", "RFC3339 reference time for the forecast (default: wall clock)")
	return cmd
}

// requestSlot fills hour and day from ref unless they were given explicitly.
func requestSlot(ref time.Time, hour, day int, hourSet, daySet bool) (int, int) {
	if !hourSet {
		hour = ref.Hour()
	}
	if !daySet {
		day = features.Weekday(ref)
	}
	return hour, day
}

// parseLags reads exactly three comma separated multipliers.
func parseLags(s string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("--lags wants 3 values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("--lags[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
