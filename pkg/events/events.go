// Package events defines the event types published on the automation bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const Topic = "automation.events"         // Workflow lifecycle events
const ChangesTopic = "automation.changes" // Row-level change feed

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowTriggeredEvent EventType = "workflow.triggered"
	WorkflowFinishedEvent  EventType = "workflow.finished"
	WorkflowFailedEvent    EventType = "workflow.failed"

	// Workflow management events.
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	// Inbound integration events.
	ExternalEventReceivedEvent EventType = "external.event.received"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	StoreID    string         `json:"store_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowTriggered is published for every trigger firing; workers consume
// it to run the workflow's actions.
type WorkflowTriggered struct {
	BaseEvent

	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowFinished struct {
	BaseEvent

	Result   map[string]any `json:"result,omitempty"`
	Duration time.Duration  `json:"duration"`
}

func (w WorkflowFinished) GetType() EventType {
	return WorkflowFinishedEvent
}

type WorkflowFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type WorkflowCreated struct {
	BaseEvent
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// ExternalEventReceived carries an inbound webhook from the API to the
// engine, which fans it out to external_event listeners.
type ExternalEventReceived struct {
	BaseEvent

	EventName string         `json:"event_name"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (e ExternalEventReceived) GetType() EventType {
	return ExternalEventReceivedEvent
}
