package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"surgecast/internal/artifact"
	"surgecast/internal/bootstrap"
	"surgecast/internal/features"
)

// roundTripTolerance bounds scale/unscale drift on a sample row.
const roundTripTolerance = 1e-9

type validateReport struct {
	Source          string             `json:"source"`
	Alignment       artifact.Alignment `json:"feature_alignment"`
	ScalerRoundTrip float64            `json:"scaler_round_trip_error"`
	OK              bool               `json:"ok"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load artifacts and check them against the feature contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			bundle, err := bootstrap.LoadBundle(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}

			sample := features.Columns(8, 0, [3]float64{1.2, 1.1, 1.0}, bootstrap.PeakHours(cfg))
			worst, err := bundle.Scaler.RoundTrip(sample.Slice())
			if err != nil {
				return err
			}
			a := bundle.Alignment()
			rep := validateReport{
				Source:          bundle.Source,
				Alignment:       a,
				ScalerRoundTrip: worst,
				OK:              a.Aligned && worst <= roundTripTolerance,
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.OK {
				return fmt.Errorf("artifacts at %s failed validation", bundle.Source)
			}
			return nil
		},
	}
}
