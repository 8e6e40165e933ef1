// Package registry catalogs the trigger and action types the engine
// understands, with JSON Schemas for their configuration payloads. The
// API serves the catalog to workflow editors; the engine validates
// configurations against it before accepting a workflow.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/storewise/automation/pkg/models"
)

// TriggerDefinition describes one registrable trigger type.
type TriggerDefinition struct {
	Type        models.TriggerType `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Schema      map[string]any     `json:"schema"`
}

// ActionDefinition describes one executable action type.
type ActionDefinition struct {
	Type        models.ActionType `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Schema      map[string]any    `json:"schema"`
}

// Registry holds the type catalog. Construct one per composition root
// with NewRegistry and register the built-in definitions.
type Registry struct {
	logger   *slog.Logger
	triggers map[models.TriggerType]TriggerDefinition
	actions  map[models.ActionType]ActionDefinition
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "registry"),
		triggers: make(map[models.TriggerType]TriggerDefinition),
		actions:  make(map[models.ActionType]ActionDefinition),
	}
}

func (r *Registry) RegisterTrigger(def TriggerDefinition) {
	r.triggers[def.Type] = def
}

func (r *Registry) RegisterAction(def ActionDefinition) {
	r.actions[def.Type] = def
}

// Triggers returns the registered trigger definitions sorted by type.
func (r *Registry) Triggers() []TriggerDefinition {
	defs := make([]TriggerDefinition, 0, len(r.triggers))

	for _, def := range r.triggers {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })

	return defs
}

// Actions returns the registered action definitions sorted by type.
func (r *Registry) Actions() []ActionDefinition {
	defs := make([]ActionDefinition, 0, len(r.actions))

	for _, def := range r.actions {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })

	return defs
}

// ValidateTriggerConfig checks a trigger configuration against the
// registered schema for its type.
func (r *Registry) ValidateTriggerConfig(triggerType models.TriggerType, config map[string]any) error {
	def, ok := r.triggers[triggerType]
	if !ok {
		return fmt.Errorf("unknown trigger type: %s", triggerType)
	}

	return validateAgainstSchema(string(triggerType), def.Schema, config)
}

// ValidateActionConfig checks an action configuration against the
// registered schema for its type.
func (r *Registry) ValidateActionConfig(actionType models.ActionType, config map[string]any) error {
	def, ok := r.actions[actionType]
	if !ok {
		return fmt.Errorf("unknown action type: %s", actionType)
	}

	return validateAgainstSchema(string(actionType), def.Schema, config)
}

func validateAgainstSchema(name string, schema, config map[string]any) error {
	if schema == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation for %s failed: %w", name, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))

		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("invalid %s configuration: %v", name, messages)
	}

	return nil
}
