package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricQueriesCoverAllNamedMetrics(t *testing.T) {
	for _, metric := range []string{MetricLowInventory, MetricDailyRevenue, MetricAbandonedCarts} {
		assert.Contains(t, metricQueries, metric)
	}
}

func TestSourceFunc(t *testing.T) {
	source := SourceFunc(func(_ context.Context, metric string) (float64, error) {
		assert.Equal(t, MetricDailyRevenue, metric)

		return 42.5, nil
	})

	value, err := source.Query(context.Background(), MetricDailyRevenue)

	assert.NoError(t, err)
	assert.Equal(t, 42.5, value)
}
