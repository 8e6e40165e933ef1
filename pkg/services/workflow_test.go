package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storewise/automation/pkg/builder"
	"github.com/storewise/automation/pkg/eventbus"
	"github.com/storewise/automation/pkg/events"
	"github.com/storewise/automation/pkg/persistence"
	"github.com/storewise/automation/pkg/persistence/file"
)

type capturingPublisher struct {
	published []eventbus.Event
	err       error
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return p.err
}

func newTestService(t *testing.T) (*Workflow, *capturingPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := &capturingPublisher{}
	service := NewWorkflow(logger, file.NewPersistence(t.TempDir()), builder.NewBuilder(logger), publisher)

	return service, publisher
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)

	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.Enabled)
	assert.Equal(t, 1, workflow.Version)

	stored, err := service.FetchByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order alerts", stored.Name)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.WorkflowCreatedEvent, publisher.published[0].GetType())
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, err := service.Create(ctx, CreateRequest{StoreID: "store-1"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = service.Create(ctx, CreateRequest{Name: "Order alerts"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateFromTemplate(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)

	workflow, err := service.CreateFromTemplate(ctx, "low-stock-alert", "store-1", map[string]any{
		"threshold":   float64(5),
		"alert_email": "ops@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "store-1", workflow.StoreID)
	assert.NotEmpty(t, workflow.Actions)
	require.Len(t, publisher.published, 1)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)

	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	name := "Renamed alerts"

	updated, err := service.Update(ctx, workflow.ID, UpdateRequest{
		Name: &name,
		Tags: []string{"orders"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed alerts", updated.Name)
	assert.Equal(t, []string{"orders"}, updated.Tags)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, events.WorkflowUpdatedEvent, publisher.published[len(publisher.published)-1].GetType())
}

func TestSetEnabled_RequiresValidWorkflow(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	// A freshly created workflow has no actions, so enabling must fail.
	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	_, err = service.SetEnabled(ctx, workflow.ID, true)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	// A template-made workflow validates, so it can be enabled.
	fromTemplate, err := service.CreateFromTemplate(ctx, "low-stock-alert", "store-1", map[string]any{
		"threshold":   float64(5),
		"alert_email": "ops@example.com",
	})
	require.NoError(t, err)

	enabled, err := service.SetEnabled(ctx, fromTemplate.ID, true)
	require.NoError(t, err)
	assert.True(t, enabled.Enabled)

	disabled, err := service.SetEnabled(ctx, fromTemplate.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)

	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, workflow.ID))

	_, err = service.FetchByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.Equal(t, events.WorkflowDeletedEvent, publisher.published[len(publisher.published)-1].GetType())

	assert.Error(t, service.Delete(ctx, workflow.ID))
}

func TestManualRun(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)

	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	require.NoError(t, service.ManualRun(ctx, workflow.ID, map[string]any{"reason": "operator"}))

	last := publisher.published[len(publisher.published)-1]
	triggered, ok := last.(events.WorkflowTriggered)
	require.True(t, ok)
	assert.Equal(t, "manual", triggered.TriggerType)
	assert.Equal(t, workflow.ID, triggered.WorkflowID)

	// The payload shape matches an engine-side manual firing.
	assert.Equal(t, "manual", triggered.TriggerData["trigger_type"])
	assert.Equal(t, map[string]any{"reason": "operator"}, triggered.TriggerData["data"])
	assert.NotEmpty(t, triggered.TriggerData["timestamp"])

	assert.Error(t, service.ManualRun(ctx, "missing", nil))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, err := service.Create(ctx, CreateRequest{Name: "First", StoreID: "store-1"})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateRequest{Name: "Second", StoreID: "store-2"})
	require.NoError(t, err)

	all, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := service.List(ctx, "store-2")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Second", scoped[0].Name)
}

func TestPublishFailureDoesNotFailOperations(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestService(t)
	publisher.err = errors.New("broker unreachable")

	workflow, err := service.Create(ctx, CreateRequest{Name: "Order alerts", StoreID: "store-1"})
	require.NoError(t, err)

	require.NoError(t, service.ManualRun(ctx, workflow.ID, nil))
	require.NoError(t, service.Delete(ctx, workflow.ID))
}
