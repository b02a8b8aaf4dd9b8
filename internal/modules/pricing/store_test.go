package pricing

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("SURGE_TEST_DSN")
	if dsn == "" {
		t.Skip("SURGE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, applyMigrations(ctx, db))
	_, err = db.Exec(ctx, "TRUNCATE TABLE fare_rates")
	require.NoError(t, err)
	return NewStore(db), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_fare_rates.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func TestStore_ListRatesSkipsInactive(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `
        INSERT INTO fare_rates (provider, ride_type, base_fare, per_km, per_min, active) VALUES
            ('Uber', 'Auto', 30, 9, 1.5, TRUE),
            ('Ola', 'Mini', 45, 9.5, 1.8, FALSE)`)
	require.NoError(t, err)

	rates, err := store.ListRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, Rate{Provider: "Uber", RideType: "Auto", BaseFare: 30, PerKm: 9, PerMin: 1.5}, rates[0])
}

func TestStore_FeedsEstimate(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `
        INSERT INTO fare_rates (provider, ride_type, base_fare, per_km, per_min) VALUES
            ('Metro Cabs', 'Sedan', 40, 11, 2)`)
	require.NoError(t, err)

	est, err := NewService(store, inr(150)).Estimate(ctx, 10, 20)
	require.NoError(t, err)
	require.Len(t, est.Fares, 1)
	assert.Equal(t, 190.0, est.Fares[0].Fare)
}
