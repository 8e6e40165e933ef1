package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storewise/automation/pkg/changefeed"
	"github.com/storewise/automation/pkg/eventbus"
	"github.com/storewise/automation/pkg/events"
	"github.com/storewise/automation/pkg/persistence"
	"github.com/storewise/automation/pkg/trigger"
)

// Engine hosts the trigger manager. It registers every enabled workflow's
// trigger at startup, keeps registrations in sync with management events
// from the API, feeds row changes and webhooks into the manager, and turns
// each firing into a WorkflowTriggered event for the workers.
type Engine struct {
	id           string
	persistence  persistence.Persistence
	eventBus     eventbus.EventBus
	feed         *changefeed.WatermillFeed
	manager      *trigger.Manager
	logger       *slog.Logger
	restartCount int
}

func NewEngine(
	id string,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	feed *changefeed.WatermillFeed,
	manager *trigger.Manager,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		id:          id,
		persistence: store,
		eventBus:    eventBus,
		feed:        feed,
		manager:     manager,
		logger:      logger.With("module", "engine"),
	}
}

// Start runs the engine until the process receives a termination signal.
func (e *Engine) Start(ctx context.Context) {
	eCtx, cancel := context.WithCancel(ctx)

	e.logger.Info("Starting automation engine")

	e.handleSignals(eCtx, cancel)
	e.run(eCtx)
}

func (e *Engine) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		e.logger.Info("Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			e.logger.Info("Reloading registrations...")
			e.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			e.logger.Info("Shutting down gracefully...")
			e.stop(cancel)
			os.Exit(0)
		default:
			e.logger.Warn("Unhandled signal received", "signal", sig)
		}
	}()
}

// restart tears everything down and starts again with linear backoff.
func (e *Engine) restart(ctx context.Context, cancel context.CancelFunc) {
	e.restartCount++
	newCtx := context.WithoutCancel(ctx)

	e.stop(cancel)

	if e.restartCount > 5 {
		e.logger.Error("Restart limit reached, exiting...")
		os.Exit(1)
	}

	backoff := time.Duration(e.restartCount) * time.Second
	e.logger.Info("Restarting engine...", "backoff", backoff)
	time.Sleep(backoff)

	e.Start(newCtx)
}

func (e *Engine) run(ctx context.Context) {
	e.manager.Initialize()
	e.manager.OnTrigger(e.publishTriggered)

	if err := e.registerEnabledWorkflows(ctx); err != nil {
		e.logger.Error("Failed to register enabled workflows", "error", err)

		return
	}

	if err := e.subscribeManagementEvents(ctx); err != nil {
		e.logger.Error("Failed to subscribe to the event bus", "error", err)

		return
	}

	if err := e.feed.Subscribe(ctx, e.manager.HandleChange); err != nil {
		e.logger.Error("Failed to subscribe to the change feed", "error", err)

		return
	}

	e.logger.Info("Engine running, waiting for events...")

	<-ctx.Done()
	e.logger.Info("Engine context cancelled, stopping...")
}

// registerEnabledWorkflows seeds the manager from persistence at startup.
// A workflow with a broken trigger configuration is skipped and logged,
// never fatal: one bad row must not keep every other workflow down.
func (e *Engine) registerEnabledWorkflows(ctx context.Context) error {
	workflows, err := e.persistence.EnabledWorkflows(ctx)
	if err != nil {
		return err
	}

	registered := 0

	for _, workflow := range workflows {
		if err := e.manager.RegisterTrigger(workflow.ID, workflow.Trigger); err != nil {
			e.logger.Error("Skipping workflow with invalid trigger",
				"workflow_id", workflow.ID,
				"error", err)

			continue
		}

		registered++
	}

	e.logger.Info("Registered enabled workflows", "count", registered)

	return nil
}

func (e *Engine) subscribeManagementEvents(ctx context.Context) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.WorkflowCreatedEvent:       e.handleWorkflowChanged,
		events.WorkflowUpdatedEvent:       e.handleWorkflowChanged,
		events.WorkflowDeletedEvent:       e.handleWorkflowDeleted,
		events.ExternalEventReceivedEvent: e.handleExternalEvent,
	}

	for eventType, handler := range handlers {
		if err := e.eventBus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return e.eventBus.Subscribe(ctx)
}

// handleWorkflowChanged re-reads the workflow and brings its registration
// in line with the stored state.
func (e *Engine) handleWorkflowChanged(ctx context.Context, event any) error {
	workflowID := managedWorkflowID(event)
	if workflowID == "" {
		return nil
	}

	return e.syncWorkflow(ctx, workflowID)
}

func (e *Engine) handleWorkflowDeleted(_ context.Context, event any) error {
	deleted, ok := event.(*events.WorkflowDeleted)
	if !ok {
		return nil
	}

	e.manager.UnregisterTrigger(deleted.WorkflowID)

	return nil
}

func (e *Engine) handleExternalEvent(ctx context.Context, event any) error {
	received, ok := event.(*events.ExternalEventReceived)
	if !ok {
		return nil
	}

	e.logger.Info("Received external event", "event_name", received.EventName)
	e.manager.HandleWebhook(ctx, received.EventName, received.Payload)

	return nil
}

// syncWorkflow registers, replaces, or removes the registration for one
// workflow based on what persistence currently says about it.
func (e *Engine) syncWorkflow(ctx context.Context, workflowID string) error {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if persistence.IsWorkflowNotFound(err) {
		e.manager.UnregisterTrigger(workflowID)

		return nil
	}

	if err != nil {
		return err
	}

	if !workflow.Enabled {
		e.manager.UnregisterTrigger(workflowID)

		return nil
	}

	if err := e.manager.RegisterTrigger(workflow.ID, workflow.Trigger); err != nil {
		e.logger.Error("Failed to register updated workflow",
			"workflow_id", workflow.ID,
			"error", err)
	}

	return nil
}

// publishTriggered is the manager's outbound callback. The firing payload
// travels as TriggerData so workers see exactly what the trigger saw.
func (e *Engine) publishTriggered(ctx context.Context, workflowID string, payload map[string]any) error {
	triggerType, _ := payload["trigger_type"].(string)

	event := events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflowID),
		TriggerType: triggerType,
		TriggerData: payload,
	}
	event.ID = e.eventBus.GenerateID()

	if workflow, err := e.persistence.WorkflowByID(ctx, workflowID); err == nil {
		event.StoreID = workflow.StoreID
	}

	if err := e.eventBus.Publish(ctx, workflowID, event); err != nil {
		e.logger.Error("Failed to publish WorkflowTriggered event",
			"workflow_id", workflowID,
			"error", err)

		return err
	}

	e.logger.With("event_id", event.ID, "workflow_id", workflowID).
		Info("Published WorkflowTriggered event")

	return nil
}

func (e *Engine) stop(cancel context.CancelFunc) {
	e.logger.Info("Stopping engine")

	e.manager.Stop()

	if cancel != nil {
		cancel()
	}
}

func managedWorkflowID(event any) string {
	switch ev := event.(type) {
	case *events.WorkflowCreated:
		return ev.WorkflowID
	case *events.WorkflowUpdated:
		return ev.WorkflowID
	default:
		return ""
	}
}
