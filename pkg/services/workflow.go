package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storewise/automation/pkg/builder"
	"github.com/storewise/automation/pkg/eventbus"
	"github.com/storewise/automation/pkg/events"
	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow coordinates workflow management between storage, the builder,
// and the event bus. Management events notify the running engine so it
// can re-register triggers without a restart.
type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	builder     *builder.Builder
	publisher   eventbus.EventPublisher
}

// NewWorkflow creates a new workflow service. The publisher may be nil in
// tests; events are then skipped.
func NewWorkflow(logger *slog.Logger, store persistence.Persistence, wb *builder.Builder, publisher eventbus.EventPublisher) *Workflow {
	return &Workflow{
		logger:      logger.With("module", "workflow_service"),
		persistence: store,
		builder:     wb,
		publisher:   publisher,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all workflows, optionally restricted to one store.
func (w *Workflow) List(ctx context.Context, storeID string) ([]*models.Workflow, error) {
	if storeID != "" {
		return w.persistence.WorkflowsByStore(ctx, storeID)
	}

	return w.persistence.Workflows(ctx)
}

// FetchByID returns a single workflow.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowByID(ctx, id)
}

// CreateRequest carries the fields for creating an empty workflow.
type CreateRequest struct {
	Name    string `json:"name"     validate:"required,min=3"`
	StoreID string `json:"store_id" validate:"required"`
}

// Create builds a disabled skeleton workflow and stores it.
func (w *Workflow) Create(ctx context.Context, req CreateRequest) (*models.Workflow, error) {
	if req.Name == "" {
		return nil, NewValidationError("Create", "name_required", "workflow name is required", ErrWorkflowNameRequired)
	}

	if req.StoreID == "" {
		return nil, NewValidationError("Create", "store_id_required", "store ID is required", ErrStoreIDRequired)
	}

	workflow := w.builder.NewWorkflow(req.Name, req.StoreID)

	err := w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.publish(ctx, events.WorkflowCreated{
		BaseEvent: w.baseEvent(events.WorkflowCreatedEvent, workflow),
	})

	return workflow, nil
}

// CreateFromTemplate instantiates a catalog template and stores the
// result. Variable errors surface as *builder.TemplateError.
func (w *Workflow) CreateFromTemplate(ctx context.Context, templateID, storeID string, variables map[string]any) (*models.Workflow, error) {
	if storeID == "" {
		return nil, NewValidationError("CreateFromTemplate", "store_id_required", "store ID is required", ErrStoreIDRequired)
	}

	workflow, err := w.builder.CreateFromTemplate(templateID, storeID, variables)
	if err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.publish(ctx, events.WorkflowCreated{
		BaseEvent: w.baseEvent(events.WorkflowCreatedEvent, workflow),
	})

	return workflow, nil
}

// UpdateRequest carries the patchable workflow fields. Nil pointers leave
// the current value untouched.
type UpdateRequest struct {
	Name    *string          `json:"name,omitempty"`
	Trigger *models.Trigger  `json:"trigger,omitempty"`
	Actions []*models.Action `json:"actions,omitempty"`
	Tags    []string         `json:"tags,omitempty"`
}

// Update applies a partial update and bumps the workflow version.
func (w *Workflow) Update(ctx context.Context, id string, req UpdateRequest) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, NewValidationError("Update", "name_required", "workflow name is required", ErrWorkflowNameRequired)
		}

		workflow.Name = *req.Name
	}

	if req.Trigger != nil {
		workflow.Trigger = req.Trigger
	}

	if req.Actions != nil {
		workflow.Actions = req.Actions
	}

	if req.Tags != nil {
		workflow.Tags = req.Tags
	}

	workflow.Version++

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.publish(ctx, events.WorkflowUpdated{
		BaseEvent: w.baseEvent(events.WorkflowUpdatedEvent, workflow),
	})

	return workflow, nil
}

// SetEnabled enables or disables a workflow. Enabling requires the
// workflow to pass full validation; disabling always succeeds.
func (w *Workflow) SetEnabled(ctx context.Context, id string, enabled bool) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if enabled {
		result := w.builder.ValidateWorkflow(workflow)
		if !result.Valid {
			return nil, &ServiceError{
				Op:      "SetEnabled",
				Code:    "workflow_not_valid",
				Message: fmt.Sprintf("workflow cannot be enabled: %v", result.Errors),
				Err:     ErrWorkflowNotValid,
			}
		}
	}

	workflow.Enabled = enabled
	workflow.Version++

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.publish(ctx, events.WorkflowUpdated{
		BaseEvent: w.baseEvent(events.WorkflowUpdatedEvent, workflow),
	})

	return workflow, nil
}

// Delete removes a workflow and notifies the engine.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	err = w.persistence.DeleteWorkflow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, events.WorkflowDeleted{
		BaseEvent: w.baseEvent(events.WorkflowDeletedEvent, workflow),
	})

	return nil
}

// ManualRun fires a workflow immediately, bypassing trigger conditions.
func (w *Workflow) ManualRun(ctx context.Context, id string, data map[string]any) error {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	// Same payload shape as a manager-side manual firing, so workers see
	// one contract regardless of which process initiated the run.
	w.publish(ctx, events.WorkflowTriggered{
		BaseEvent:   w.baseEvent(events.WorkflowTriggeredEvent, workflow),
		TriggerType: "manual",
		TriggerData: map[string]any{
			"trigger_type": "manual",
			"data":         data,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	})

	return nil
}

func (w *Workflow) baseEvent(eventType events.EventType, workflow *models.Workflow) events.BaseEvent {
	base := events.NewBaseEvent(eventType, workflow.ID)
	base.StoreID = workflow.StoreID

	return base
}

func (w *Workflow) publish(ctx context.Context, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	// Event delivery is best effort; management operations succeed even
	// when the bus is down, but a down bus must show up in the logs.
	if err := w.publisher.Publish(ctx, "", event); err != nil {
		w.logger.Error("Failed to publish management event",
			"event_type", event.GetType(),
			"error", err)
	}
}
