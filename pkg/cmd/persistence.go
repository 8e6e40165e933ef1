// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storewise/automation/pkg/persistence"
	"github.com/storewise/automation/pkg/persistence/file"
	"github.com/storewise/automation/pkg/persistence/postgresql"
)

// NewPersistence selects a storage backend from the database URL scheme.
// postgres:// URLs get PostgreSQL; anything else falls back to file
// storage rooted at the URL path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}
