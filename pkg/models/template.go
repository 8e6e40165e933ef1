package models

// VariableType constrains the value a template variable accepts.
type VariableType string

const (
	VariableTypeString      VariableType = "string"
	VariableTypeNumber      VariableType = "number"
	VariableTypeBoolean     VariableType = "boolean"
	VariableTypeSelect      VariableType = "select"
	VariableTypeMultiSelect VariableType = "multi_select"
)

// TemplateVariable declares one substitutable parameter of a workflow
// template. Options applies to select/multi_select variables.
type TemplateVariable struct {
	Key         string       `json:"key"  validate:"required"`
	Type        VariableType `json:"type" validate:"required"`
	Description string       `json:"description"`
	Required    bool         `json:"required"`
	Default     any          `json:"default,omitempty"`
	Options     []string     `json:"options,omitempty"`
}

// WorkflowTemplate is a parameterized workflow blueprint. Instantiating it
// substitutes {{key}} placeholders recursively through the definition and
// stamps the result with fresh identity and timestamps.
type WorkflowTemplate struct {
	ID          string             `json:"id"   validate:"required"`
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Definition  *Workflow          `json:"definition" validate:"required"`
	Variables   []TemplateVariable `json:"variables"`
}
