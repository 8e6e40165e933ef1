package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/persistence"
)

func newWorkflow(id, storeID string, enabled bool) *models.Workflow {
	return &models.Workflow{
		ID:      id,
		Name:    "Workflow " + id,
		StoreID: storeID,
		Enabled: enabled,
		Version: 1,
		Trigger: &models.Trigger{
			ID:   "trg-" + id,
			Type: models.TriggerTypeDataChange,
			Configuration: map[string]any{
				"table": "orders",
			},
		},
	}
}

func TestNewPersistence_StripsFileScheme(t *testing.T) {
	p := NewPersistence("file:///tmp/store")
	assert.Equal(t, "/tmp/store", p.root)

	p = NewPersistence("/tmp/store")
	assert.Equal(t, "/tmp/store", p.root)
}

func TestSaveAndLoadWorkflow(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	workflow := newWorkflow("wf-1", "store-1", true)
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	assert.False(t, workflow.CreatedAt.IsZero())
	assert.False(t, workflow.UpdatedAt.IsZero())

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", loaded.ID)
	assert.Equal(t, "store-1", loaded.StoreID)
	assert.Equal(t, models.TriggerTypeDataChange, loaded.Trigger.Type)
}

func TestWorkflowByID_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.WorkflowByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowFiltering(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.SaveWorkflow(ctx, newWorkflow("wf-1", "store-1", true)))
	require.NoError(t, p.SaveWorkflow(ctx, newWorkflow("wf-2", "store-1", false)))
	require.NoError(t, p.SaveWorkflow(ctx, newWorkflow("wf-3", "store-2", true)))

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byStore, err := p.WorkflowsByStore(ctx, "store-1")
	require.NoError(t, err)
	assert.Len(t, byStore, 2)

	enabled, err := p.EnabledWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 2)
}

func TestDeleteWorkflow(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.SaveWorkflow(ctx, newWorkflow("wf-1", "store-1", true)))
	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err := p.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	// Deleting again is a no-op.
	assert.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))
}

func TestHealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/automation-test")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
