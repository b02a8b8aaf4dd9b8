// README: surgectl runs the prediction pipeline offline, validates artifacts and benchmarks a running API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	_ "time/tzdata" // zone database for minimal images

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"surgecast/internal/config"
	"surgecast/internal/logger"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "surgectl",
		Short:         "Operate the surgecast prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")
	rootCmd.AddCommand(newPredictCmd(), newValidateCmd(), newBenchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the same config as the API; logs go to stderr so stdout stays JSON.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	if !verbose {
		return cfg, zerolog.Nop(), nil
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, log, nil
}
