// README: Bench cases: environment checks, API contract checks and a /predict load test.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusPending = "PENDING"
	StatusSkip    = "SKIP"
)

type Runner struct {
	cfg   BenchConfig
	out   io.Writer
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg BenchConfig, out io.Writer) *Runner {
	return &Runner{
		cfg:   cfg,
		out:   out,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}
	defer r.close()

	return r.run(ctx, r.cases())
}

func (r *Runner) run(ctx context.Context, tests []TestCase) []Result {
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		printResult(r.out, tc.Name, res)
	}
	return results
}

func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

func peakPayload() map[string]any {
	return map[string]any{
		"hour":        8,
		"day_of_week": 0,
		"surge_lag_1": 1.6,
		"surge_lag_2": 1.4,
		"surge_lag_3": 1.2,
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "fare_rates store reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "route cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: StatusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: StatusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: StatusFail, Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: StatusFail, Note: err.Error()}
					}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables from the migration file are present",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusSkip, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: StatusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: StatusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: StatusPass, Note: strings.Join(tables, ",")}
			},
		},
		httpCase("API: health", http.MethodGet, base+"/health", nil, []int{200}, nil, `"status"`),
		httpCase("API: predict peak hour", http.MethodPost, base+"/predict", peakPayload(), []int{200}, nil, `"forecast"`),
		httpCase("API: predict hour out of range", http.MethodPost, base+"/predict", map[string]any{
			"hour": 24, "day_of_week": 0, "surge_lag_1": 1, "surge_lag_2": 1, "surge_lag_3": 1,
		}, []int{400}, nil, `"degraded":true`),
		httpCase("API: predict negative lag", http.MethodPost, base+"/predict", map[string]any{
			"hour": 8, "day_of_week": 0, "surge_lag_1": -1, "surge_lag_2": 1, "surge_lag_3": 1,
		}, []int{400}, nil, `"invalid_input"`),
		httpCase("API: fares missing fields", http.MethodPost, base+"/api/v1/fares/estimate", map[string]any{
			"source": "MG Road",
		}, []int{400}, nil, ""),
		httpCase("API: fares estimate", http.MethodPost, base+"/api/v1/fares/estimate", map[string]any{
			"source": "12.9756,77.6050", "destination": "13.1986,77.7066",
		}, []int{200}, []int{503}, `"recommendation"`),
		httpCase("API: metrics", http.MethodGet, base+"/metrics", nil, []int{200}, nil, "surgecast_predictions_total"),
		{
			Name:  "Perf: concurrent predict",
			Focus: "no 5xx under a burst; 429 is allowed",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentBurst(ctx, r, base+"/predict", peakPayload())
			},
		},
		{
			Name:  "Perf: predict load",
			Focus: "sustained throughput and latency",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/predict", peakPayload())
			},
		},
	}
}

// httpCase passes on okStatuses with want in the body; pendingStatuses mark
// features the target deployment has switched off.
func httpCase(name, method, url string, payload any, okStatuses, pendingStatuses []int, want string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP",
		Run: func(ctx context.Context, r *Runner) Result {
			var body io.Reader
			if payload != nil {
				b, _ := json.Marshal(payload)
				body = bytes.NewReader(b)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, body)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			got, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			latency := time.Since(start)
			note := fmt.Sprintf("status=%d", resp.StatusCode)

			switch {
			case contains(okStatuses, resp.StatusCode):
				if want != "" && !strings.Contains(string(got), want) {
					return Result{Status: StatusFail, Latency: latency, Note: note + " body missing " + want}
				}
				return Result{Status: StatusPass, Latency: latency, Note: note}
			case contains(pendingStatuses, resp.StatusCode):
				return Result{Status: StatusPending, Latency: latency, Note: note}
			default:
				return Result{Status: StatusFail, Latency: latency, Note: note}
			}
		},
	}
}

func post(ctx context.Context, r *Runner, url string, b []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func concurrentBurst(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	var (
		wg                     sync.WaitGroup
		mu                     sync.Mutex
		ok, limited, srv, errs int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := post(ctx, r, url, b)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs++
			case code == http.StatusTooManyRequests:
				limited++
			case code >= 500:
				srv++
			case code >= 200 && code < 300:
				ok++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("ok=%d limited=%d 5xx=%d errors=%d", ok, limited, srv, errs)
	if srv > 0 || errs > 0 || ok == 0 {
		return Result{Status: StatusFail, Note: note}
	}
	return Result{Status: StatusPass, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		latencies []time.Duration
		errCount  int64
		non2xx    int64
	)

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				start := time.Now()
				code, err := post(ctx, r, url, b)
				d := time.Since(start)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case code < 200 || code >= 300:
					non2xx++
				default:
					latencies = append(latencies, d)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(latencies) == 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("no requests completed errors=%d non2xx=%d", errCount, non2xx)}
	}
	rps := float64(len(latencies)) / r.cfg.Duration.Seconds()
	return Result{
		Status:  StatusPass,
		Latency: percentile(latencies, 0.5),
		Note: fmt.Sprintf("rps=%.1f p95=%s errors=%d non2xx=%d",
			rps, percentile(latencies, 0.95), errCount, non2xx),
	}
}

// percentile uses nearest rank; it sorts ds in place.
func percentile(ds []time.Duration, p float64) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	idx := int(float64(len(ds))*p+0.5) - 1
	return ds[max(0, min(idx, len(ds)-1))]
}

func contains(list []int, v int) bool {
	return slices.Contains(list, v)
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
