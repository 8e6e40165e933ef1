package models

// TriggerType identifies how a workflow is started.
type TriggerType string

const (
	TriggerTypeDataChange    TriggerType = "data_change"
	TriggerTypeTimeBased     TriggerType = "time_based"
	TriggerTypeExternalEvent TriggerType = "external_event"
	TriggerTypeThreshold     TriggerType = "threshold"
)

// Trigger describes the condition that starts a workflow. Configuration is
// type-specific; required keys per type are enforced by the builder
// validators and again at registration time by the trigger manager.
type Trigger struct {
	ID            string         `json:"id"`
	Name          string         `json:"name" validate:"required"`
	Type          TriggerType    `json:"type" validate:"required"`
	Configuration map[string]any `json:"configuration"`
	Enabled       bool           `json:"enabled"`
}

// ConfigString returns the named configuration entry as a string, or ""
// when absent or not a string.
func (t *Trigger) ConfigString(key string) string {
	if t.Configuration == nil {
		return ""
	}

	value, _ := t.Configuration[key].(string)

	return value
}

// ChangeOperation is the lowercase operation a data_change trigger matches
// against, mapped from the change feed's INSERT/UPDATE/DELETE event types.
type ChangeOperation string

const (
	ChangeOperationInsert ChangeOperation = "insert"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationDelete ChangeOperation = "delete"
)

// OperationForEventType maps a change-feed event type to the operation
// vocabulary used in data_change trigger configurations.
func OperationForEventType(eventType string) (ChangeOperation, bool) {
	switch eventType {
	case "INSERT":
		return ChangeOperationInsert, true
	case "UPDATE":
		return ChangeOperationUpdate, true
	case "DELETE":
		return ChangeOperationDelete, true
	default:
		return "", false
	}
}
