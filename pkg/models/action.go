package models

// ActionType identifies the kind of side effect an action performs. The
// execution consumer owns the actual effect; this core only validates and
// orders them.
type ActionType string

const (
	ActionTypeEmail       ActionType = "email"
	ActionTypeInventory   ActionType = "inventory"
	ActionTypeCustomer    ActionType = "customer"
	ActionTypeIntegration ActionType = "integration"
	ActionTypeDataExport  ActionType = "data_export"
	ActionTypeCustom      ActionType = "custom"
)

// Action is one step in a workflow's pipeline. Order is zero-based and
// dense within a workflow; Conditions gate execution of this step only.
type Action struct {
	ID            string         `json:"id"`
	Name          string         `json:"name" validate:"required"`
	Type          ActionType     `json:"type" validate:"required"`
	Configuration map[string]any `json:"configuration"`
	Order         int            `json:"order" validate:"gte=0"`
	Conditions    []Filter       `json:"conditions,omitempty"`
}

// ConfigString returns the named configuration entry as a string, or ""
// when absent or not a string.
func (a *Action) ConfigString(key string) string {
	if a.Configuration == nil {
		return ""
	}

	value, _ := a.Configuration[key].(string)

	return value
}
