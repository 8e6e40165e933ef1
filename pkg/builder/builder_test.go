package builder

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/storewise/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *Builder {
	return NewBuilder(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestNewWorkflow_Skeleton(t *testing.T) {
	b := newTestBuilder()

	workflow := b.NewWorkflow("Restock alerts", "store-1")

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, "Restock alerts", workflow.Name)
	assert.Equal(t, "store-1", workflow.StoreID)
	assert.False(t, workflow.Enabled)
	assert.Equal(t, 1, workflow.Version)
	assert.Empty(t, workflow.Actions)

	require.NotNil(t, workflow.Trigger)
	assert.Equal(t, models.TriggerTypeDataChange, workflow.Trigger.Type)
	assert.True(t, workflow.Trigger.Enabled)
}

func assertDenseOrders(t *testing.T, workflow *models.Workflow) {
	t.Helper()

	sorted := workflow.SortedActions()
	for i, action := range sorted {
		assert.Equal(t, i, action.Order, "action %s should have order %d", action.Name, i)
	}
}

func TestActionOrdering(t *testing.T) {
	b := newTestBuilder()
	workflow := b.NewWorkflow("Pipeline", "store-1")

	first := &models.Action{Name: "first", Type: models.ActionTypeEmail}
	second := &models.Action{Name: "second", Type: models.ActionTypeInventory}
	third := &models.Action{Name: "third", Type: models.ActionTypeCustomer}

	b.AddAction(workflow, first)
	b.AddAction(workflow, second)
	b.AddAction(workflow, third)

	assertDenseOrders(t, workflow)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 2, third.Order)

	b.RemoveAction(workflow, second.ID)
	assertDenseOrders(t, workflow)
	assert.Len(t, workflow.Actions, 2)
	assert.Equal(t, 1, third.Order)

	b.AddAction(workflow, second)
	b.MoveAction(workflow, second.ID, 0)
	assertDenseOrders(t, workflow)
	assert.Equal(t, 0, second.Order)
	assert.Equal(t, 1, first.Order)

	// Positions clamp to the pipeline bounds.
	b.MoveAction(workflow, second.ID, 99)
	assertDenseOrders(t, workflow)
	assert.Equal(t, 2, second.Order)

	// Unknown IDs are complete no-ops: no reorder, no version bump.
	version := workflow.Version
	updatedAt := workflow.UpdatedAt

	b.MoveAction(workflow, "missing", 0)
	b.RemoveAction(workflow, "missing")
	assertDenseOrders(t, workflow)
	assert.Len(t, workflow.Actions, 3)
	assert.Equal(t, version, workflow.Version)
	assert.Equal(t, updatedAt, workflow.UpdatedAt)
}

func TestValidateAction(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name        string
		action      *models.Action
		valid       bool
		errContains string
	}{
		{
			name:        "email without recipient or template",
			action:      &models.Action{Name: "mail", Type: models.ActionTypeEmail, Configuration: map[string]any{}},
			valid:       false,
			errContains: "recipient or a template",
		},
		{
			name:   "email with recipient",
			action: &models.Action{Name: "mail", Type: models.ActionTypeEmail, Configuration: map[string]any{"recipient": "a@b.com"}},
			valid:  true,
		},
		{
			name:   "email with template id",
			action: &models.Action{Name: "mail", Type: models.ActionTypeEmail, Configuration: map[string]any{"template_id": "welcome"}},
			valid:  true,
		},
		{
			name:        "inventory without operation",
			action:      &models.Action{Name: "inv", Type: models.ActionTypeInventory},
			valid:       false,
			errContains: "operation",
		},
		{
			name:        "integration without service",
			action:      &models.Action{Name: "sync", Type: models.ActionTypeIntegration},
			valid:       false,
			errContains: "service",
		},
		{
			name:        "webhook integration without endpoint",
			action:      &models.Action{Name: "hook", Type: models.ActionTypeIntegration, Configuration: map[string]any{"service": "webhook"}},
			valid:       false,
			errContains: "endpoint",
		},
		{
			name:   "webhook integration with endpoint",
			action: &models.Action{Name: "hook", Type: models.ActionTypeIntegration, Configuration: map[string]any{"service": "webhook", "endpoint": "https://x.test"}},
			valid:  true,
		},
		{
			name:        "data export without format",
			action:      &models.Action{Name: "export", Type: models.ActionTypeDataExport},
			valid:       false,
			errContains: "format",
		},
		{
			name:        "custom without function or script",
			action:      &models.Action{Name: "fn", Type: models.ActionTypeCustom},
			valid:       false,
			errContains: "function name or an inline script",
		},
		{
			name:        "missing name",
			action:      &models.Action{Type: models.ActionTypeCustomer},
			valid:       false,
			errContains: "name is required",
		},
		{
			name:        "negative order",
			action:      &models.Action{Name: "x", Type: models.ActionTypeCustomer, Order: -1},
			valid:       false,
			errContains: "order",
		},
		{
			name:        "unknown type",
			action:      &models.Action{Name: "x", Type: "teleport"},
			valid:       false,
			errContains: "unknown type",
		},
		{
			name: "invalid embedded condition",
			action: &models.Action{
				Name:       "x",
				Type:       models.ActionTypeCustomer,
				Conditions: []models.Filter{{Operator: models.OperatorEquals}},
			},
			valid:       false,
			errContains: "field is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := b.ValidateAction(tt.action)
			assert.Equal(t, tt.valid, res.Valid)

			if tt.errContains != "" {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, strings.Join(res.Errors, "; "), tt.errContains)
			}
		})
	}
}

func TestValidateTrigger(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name    string
		trigger *models.Trigger
		valid   bool
	}{
		{
			name: "data_change with table",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeDataChange,
				Configuration: map[string]any{"table": "orders"},
			},
			valid: true,
		},
		{
			name:    "data_change without table",
			trigger: &models.Trigger{Name: "t", Type: models.TriggerTypeDataChange},
			valid:   false,
		},
		{
			name: "time_based with schedule",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeTimeBased,
				Configuration: map[string]any{"schedule": "*/5 * * * *"},
			},
			valid: true,
		},
		{
			name:    "time_based without schedule",
			trigger: &models.Trigger{Name: "t", Type: models.TriggerTypeTimeBased},
			valid:   false,
		},
		{
			name: "time_based with malformed schedule",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeTimeBased,
				Configuration: map[string]any{"schedule": "not cron"},
			},
			valid: false,
		},
		{
			name: "threshold fully configured",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeThreshold,
				Configuration: map[string]any{"metric": "low_inventory", "operator": "gt", "value": 5},
			},
			valid: true,
		},
		{
			name: "threshold missing operator",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeThreshold,
				Configuration: map[string]any{"metric": "low_inventory", "value": 5},
			},
			valid: false,
		},
		{
			name: "threshold with unknown operator",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeThreshold,
				Configuration: map[string]any{"metric": "low_inventory", "operator": "between", "value": 5},
			},
			valid: false,
		},
		{
			name: "threshold with non-numeric value",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeThreshold,
				Configuration: map[string]any{"metric": "low_inventory", "operator": "gt", "value": "lots"},
			},
			valid: false,
		},
		{
			name: "external_event with event type",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeExternalEvent,
				Configuration: map[string]any{"event_type": "import.requested"},
			},
			valid: true,
		},
		{
			name:    "external_event without event type",
			trigger: &models.Trigger{Name: "t", Type: models.TriggerTypeExternalEvent},
			valid:   false,
		},
		{
			name:    "missing name and type",
			trigger: &models.Trigger{},
			valid:   false,
		},
		{
			name: "embedded filters are validated",
			trigger: &models.Trigger{
				Name: "t", Type: models.TriggerTypeDataChange,
				Configuration: map[string]any{
					"table":   "orders",
					"filters": []any{map[string]any{"operator": "equals"}},
				},
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := b.ValidateTrigger(tt.trigger)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestValidateWorkflow(t *testing.T) {
	b := newTestBuilder()

	valid := b.NewWorkflow("Order alerts", "store-1")
	valid.Trigger.Configuration = map[string]any{"table": "orders"}
	b.AddAction(valid, &models.Action{
		Name: "mail", Type: models.ActionTypeEmail,
		Configuration: map[string]any{"recipient": "a@b.com"},
	})

	res := b.ValidateWorkflow(valid)
	assert.True(t, res.Valid, "errors: %v", res.Errors)

	t.Run("requires at least one action", func(t *testing.T) {
		workflow := b.NewWorkflow("Empty", "store-1")
		workflow.Trigger.Configuration = map[string]any{"table": "orders"}

		res := b.ValidateWorkflow(workflow)
		assert.False(t, res.Valid)
	})

	t.Run("requires store identity", func(t *testing.T) {
		workflow := b.NewWorkflow("No store", "")
		res := b.ValidateWorkflow(workflow)
		assert.False(t, res.Valid)
	})

	t.Run("rejects duplicate action orders", func(t *testing.T) {
		workflow := b.NewWorkflow("Dup", "store-1")
		workflow.Trigger.Configuration = map[string]any{"table": "orders"}
		workflow.Actions = []*models.Action{
			{ID: "a", Name: "a", Type: models.ActionTypeCustomer, Order: 0},
			{ID: "b", Name: "b", Type: models.ActionTypeCustomer, Order: 0},
		}

		res := b.ValidateWorkflow(workflow)
		assert.False(t, res.Valid)
	})

	t.Run("missing trigger", func(t *testing.T) {
		workflow := b.NewWorkflow("No trigger", "store-1")
		workflow.Trigger = nil

		res := b.ValidateWorkflow(workflow)
		assert.False(t, res.Valid)
	})
}

func TestRegisterTemplate(t *testing.T) {
	b := newTestBuilder()

	custom := &models.WorkflowTemplate{
		ID:   "weekly-digest",
		Name: "Weekly digest",
		Definition: &models.Workflow{
			Name: "Weekly digest",
			Trigger: &models.Trigger{
				Name:          "Every week",
				Type:          models.TriggerTypeTimeBased,
				Configuration: map[string]any{"schedule": "0 0 * * *"},
			},
		},
	}

	require.NoError(t, b.RegisterTemplate(custom))

	registered, ok := b.Template("weekly-digest")
	require.True(t, ok)
	assert.Equal(t, "Weekly digest", registered.Name)

	// Re-registering the same ID replaces the entry.
	custom2 := *custom
	custom2.Name = "Weekly digest v2"
	require.NoError(t, b.RegisterTemplate(&custom2))

	registered, ok = b.Template("weekly-digest")
	require.True(t, ok)
	assert.Equal(t, "Weekly digest v2", registered.Name)

	// Incomplete entries are rejected.
	err := b.RegisterTemplate(&models.WorkflowTemplate{ID: "broken"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "needs an id, a name, and a definition")

	require.Error(t, b.RegisterTemplate(nil))
}
