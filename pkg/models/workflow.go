// Package models defines the core domain models for store workflow automation.
package models

import "time"

// Workflow is the persisted automation unit: one trigger plus an ordered
// action pipeline, owned by a store.
type Workflow struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"     validate:"required,min=3"`
	Description  string     `json:"description"`
	StoreID      string     `json:"store_id" validate:"required"`
	Trigger      *Trigger   `json:"trigger"  validate:"required"`
	Actions      []*Action  `json:"actions"`
	Enabled      bool       `json:"enabled"`
	Version      int        `json:"version"`
	RunCount     int        `json:"run_count"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Tags         []string   `json:"tags,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SortedActions returns the workflow's actions sorted by ascending order
// value. The builder keeps order values dense and zero-based, so execution
// order is exactly this slice.
func (w *Workflow) SortedActions() []*Action {
	sorted := make([]*Action, len(w.Actions))
	copy(sorted, w.Actions)

	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Order < sorted[i].Order {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return sorted
}
