// README: Pricing store backed by PostgreSQL (fare_rates table).
package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads active rows from fare_rates; see migrations/0001_fare_rates.sql.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.Query(ctx, `
        SELECT provider, ride_type, base_fare, per_km, per_min
        FROM fare_rates
        WHERE active
        ORDER BY provider, ride_type`)
	if err != nil {
		return nil, fmt.Errorf("query fare_rates: %w", err)
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var r Rate
		if err := rows.Scan(&r.Provider, &r.RideType, &r.BaseFare, &r.PerKm, &r.PerMin); err != nil {
			return nil, fmt.Errorf("scan fare_rates: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fare_rates: %w", err)
	}
	return out, nil
}
