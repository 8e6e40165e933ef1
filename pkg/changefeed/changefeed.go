// Package changefeed defines the change-feed contract the trigger manager
// consumes: one shared subscription per watched resource table, emitting
// INSERT/UPDATE/DELETE events with the new and old record.
package changefeed

import "context"

// Tables watched by the engine. The feed implementation is expected to
// emit changes for exactly these resources.
var WatchedTables = []string{"products", "orders", "customers", "inventory"}

// Change is one row-level change on a watched table.
type Change struct {
	Table     string         `json:"table"`
	EventType string         `json:"event_type"`
	NewRecord map[string]any `json:"new,omitempty"`
	OldRecord map[string]any `json:"old,omitempty"`
}

// Handler consumes one change event.
type Handler func(ctx context.Context, change Change)

// Feed delivers change events to a single handler until the context is
// cancelled or Close is called.
type Feed interface {
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}
