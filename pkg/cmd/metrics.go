package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storewise/automation/pkg/metrics"
	"github.com/storewise/automation/pkg/persistence"
	"github.com/storewise/automation/pkg/persistence/postgresql"
)

// NewMetricSource picks the metric backend for threshold triggers. A
// redis:// URL selects the counter source; otherwise the SQL source
// shares the PostgreSQL pool when the persistence layer has one, and
// falls back to a direct connection.
func NewMetricSource(ctx context.Context, logger *slog.Logger, metricsURL string, store persistence.Persistence) (metrics.Source, error) {
	if strings.HasPrefix(metricsURL, "redis://") || strings.HasPrefix(metricsURL, "rediss://") {
		source, err := metrics.NewRedisSource(ctx, logger, metricsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis metric source: %w", err)
		}

		return source, nil
	}

	if pg, ok := store.(*postgresql.Persistence); ok {
		return metrics.NewSQLSourceFromDB(pg.DB(), logger), nil
	}

	if metricsURL == "" {
		return nil, fmt.Errorf("no metric source configured")
	}

	source, err := metrics.NewSQLSource(ctx, logger, metricsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQL metric source: %w", err)
	}

	return source, nil
}
