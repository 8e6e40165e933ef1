package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// metricQueries maps every built-in metric to the SQL that computes it.
// Each query must return a single numeric column.
var metricQueries = map[string]string{
	MetricLowInventory:   `SELECT COUNT(*) FROM products WHERE stock_quantity <= reorder_level AND deleted_at IS NULL`,
	MetricDailyRevenue:   `SELECT COALESCE(SUM(total), 0) FROM orders WHERE created_at >= date_trunc('day', now()) AND status NOT IN ('cancelled', 'refunded')`,
	MetricAbandonedCarts: `SELECT COUNT(*) FROM carts WHERE status = 'open' AND updated_at < now() - interval '1 hour'`,
}

// SQLSource computes store metrics with aggregate queries against the
// primary PostgreSQL database.
type SQLSource struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLSource connects to PostgreSQL and verifies the connection.
func NewSQLSource(ctx context.Context, logger *slog.Logger, databaseURL string) (*SQLSource, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLSource{
		db:     database,
		logger: logger.With("module", "metrics_sql"),
	}, nil
}

// NewSQLSourceFromDB wraps an existing connection, sharing the pool with
// the persistence layer.
func NewSQLSourceFromDB(db *sql.DB, logger *slog.Logger) *SQLSource {
	return &SQLSource{
		db:     db,
		logger: logger.With("module", "metrics_sql"),
	}
}

// Query runs the aggregate for the named metric. Unknown metrics return 0
// with a warning so a misconfigured trigger degrades to never firing.
func (s *SQLSource) Query(ctx context.Context, metric string) (float64, error) {
	query, ok := metricQueries[metric]
	if !ok {
		s.logger.Warn("Unknown metric requested, returning 0", "metric", metric)

		return 0, nil
	}

	var value float64

	err := s.db.QueryRowContext(ctx, query).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to query metric %q: %w", metric, err)
	}

	return value, nil
}

// Close closes the database connection.
func (s *SQLSource) Close() error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
