// Package metrics exposes named store metrics to threshold triggers. The
// engine core only reads metrics; how they are produced belongs to the
// host application.
package metrics

import "context"

// Named metrics every source must answer. Sources may answer more.
const (
	MetricLowInventory   = "low_inventory"
	MetricDailyRevenue   = "daily_revenue"
	MetricAbandonedCarts = "abandoned_carts"
)

// Source returns the current numeric value of a named metric. Unknown
// metric names yield a safe default of 0 with a logged warning, never an
// error: a misconfigured trigger must not take down its poller.
type Source interface {
	Query(ctx context.Context, metric string) (float64, error)
}

// SourceFunc adapts a function to the Source interface, mostly for tests.
type SourceFunc func(ctx context.Context, metric string) (float64, error)

func (f SourceFunc) Query(ctx context.Context, metric string) (float64, error) {
	return f(ctx, metric)
}
