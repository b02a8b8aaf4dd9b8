package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type BenchConfig struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationPath  string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

func newBenchCmd() *cobra.Command {
	var cfg BenchConfig
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run smoke checks and a load test against a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			results := NewRunner(cfg, out).RunAll(ctx)
			s := summarize(results)
			fmt.Fprintln(out, "\n== Summary ==")
			fmt.Fprintf(out, "PASS=%d FAIL=%d PENDING=%d SKIP=%d\n", s.pass, s.fail, s.pending, s.skipped)

			if s.fail > 0 || (cfg.Strict && s.pending > 0) {
				return fmt.Errorf("bench: %d failed, %d pending", s.fail, s.pending)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "base-url", envOrDefault("SURGE_BENCH_BASE_URL", "http://localhost:8000"), "API base URL")
	f.StringVar(&cfg.DSN, "dsn", os.Getenv("SURGE_DB_DSN"), "Postgres DSN; empty skips DB checks")
	f.StringVar(&cfg.RedisAddr, "redis", os.Getenv("SURGE_REDIS_ADDR"), "Redis address; empty skips Redis checks")
	f.StringVar(&cfg.MigrationPath, "migration", envOrDefault("SURGE_BENCH_MIGRATION", "migrations/0001_fare_rates.sql"), "Migration SQL path")
	f.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("SURGE_BENCH_APPLY_MIGRATION", false), "Apply migration SQL before tests")
	f.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("SURGE_BENCH_STRICT", false), "Fail on pending tests")
	f.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("SURGE_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
	f.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("SURGE_BENCH_CONCURRENCY", 20), "Concurrency for perf tests")
	f.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("SURGE_BENCH_DURATION", 10*time.Second), "Duration for perf tests")
	return cmd
}

type summary struct {
	pass, fail, pending, skipped int
}

func summarize(results []Result) summary {
	var s summary
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.pass++
		case StatusFail:
			s.fail++
		case StatusPending:
			s.pending++
		case StatusSkip:
			s.skipped++
		}
	}
	return s
}

func printResult(w io.Writer, name string, res Result) {
	fmt.Fprintf(w, "%-7s %s", res.Status, name)
	if res.Latency > 0 {
		fmt.Fprintf(w, " (%s)", res.Latency)
	}
	if res.Note != "" {
		fmt.Fprintf(w, " - %s", res.Note)
	}
	fmt.Fprintln(w)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
