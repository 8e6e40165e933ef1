// Package persistence provides the storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/storewise/automation/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowsByStore(ctx context.Context, storeID string) ([]*models.Workflow, error)
	EnabledWorkflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
