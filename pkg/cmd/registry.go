package cmd

import (
	"log/slog"

	"github.com/storewise/automation/pkg/registry"
)

// NewRegistry builds the type catalog with all built-in trigger and
// action definitions installed.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	registry.RegisterBuiltins(reg)

	return reg
}
