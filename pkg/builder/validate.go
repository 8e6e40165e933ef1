package builder

import (
	"encoding/json"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/rules"
)

// ValidationResult aggregates structural problems found in a workflow or
// one of its parts. Validators collect every violation instead of stopping
// at the first, and never fail hard.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func result(errs []string) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

var thresholdOperators = map[string]bool{
	"gt": true, "lt": true, "eq": true, "gte": true, "lte": true,
}

// ValidateWorkflow checks the whole entity: name, store identity, a valid
// trigger, and at least one valid action.
func (b *Builder) ValidateWorkflow(workflow *models.Workflow) ValidationResult {
	var errs []string

	if workflow.Name == "" {
		errs = append(errs, "workflow: name is required")
	}

	if workflow.StoreID == "" {
		errs = append(errs, "workflow: store ID is required")
	}

	if workflow.Trigger == nil {
		errs = append(errs, "workflow: exactly one trigger is required")
	} else {
		errs = append(errs, b.ValidateTrigger(workflow.Trigger).Errors...)
	}

	if len(workflow.Actions) == 0 {
		errs = append(errs, "workflow: at least one action is required")
	}

	seen := make(map[int]bool, len(workflow.Actions))

	for _, action := range workflow.Actions {
		errs = append(errs, b.ValidateAction(action).Errors...)

		if seen[action.Order] {
			errs = append(errs, fmt.Sprintf("workflow: duplicate action order %d", action.Order))
		}

		seen[action.Order] = true
	}

	return result(errs)
}

// ValidateTrigger checks a trigger's structure and its type-specific
// required configuration.
func (b *Builder) ValidateTrigger(trigger *models.Trigger) ValidationResult {
	var errs []string

	if trigger.Name == "" {
		errs = append(errs, "trigger: name is required")
	}

	switch trigger.Type {
	case models.TriggerTypeDataChange:
		if trigger.ConfigString("table") == "" {
			errs = append(errs, "trigger: data_change requires a table name")
		}
	case models.TriggerTypeTimeBased:
		schedule := trigger.ConfigString("schedule")
		if schedule == "" {
			errs = append(errs, "trigger: time_based requires a schedule")
		} else if _, err := cron.ParseStandard(schedule); err != nil {
			errs = append(errs, fmt.Sprintf("trigger: invalid schedule %q: %v", schedule, err))
		}
	case models.TriggerTypeThreshold:
		if trigger.ConfigString("metric") == "" {
			errs = append(errs, "trigger: threshold requires a metric")
		}

		operator := trigger.ConfigString("operator")
		if operator == "" {
			errs = append(errs, "trigger: threshold requires an operator")
		} else if !thresholdOperators[operator] {
			errs = append(errs, fmt.Sprintf("trigger: unknown threshold operator %q", operator))
		}

		if value, ok := trigger.Configuration["value"]; !ok {
			errs = append(errs, "trigger: threshold requires a value")
		} else if _, ok := coerceNumber(value); !ok {
			errs = append(errs, "trigger: threshold value must be numeric")
		}
	case models.TriggerTypeExternalEvent:
		if trigger.ConfigString("event_type") == "" {
			errs = append(errs, "trigger: external_event requires an event type")
		}
	case "":
		errs = append(errs, "trigger: type is required")
	default:
		errs = append(errs, fmt.Sprintf("trigger: unknown type %q", trigger.Type))
	}

	for _, msg := range rules.ValidateFilters(configuredFilters(trigger.Configuration)) {
		errs = append(errs, "trigger: "+msg)
	}

	return result(errs)
}

// ValidateAction checks an action's structure and its type-specific
// required configuration.
func (b *Builder) ValidateAction(action *models.Action) ValidationResult {
	var errs []string

	if action.Name == "" {
		errs = append(errs, "action: name is required")
	}

	if action.Order < 0 {
		errs = append(errs, "action: order must not be negative")
	}

	switch action.Type {
	case models.ActionTypeEmail:
		if action.ConfigString("recipient") == "" && action.ConfigString("template_id") == "" {
			errs = append(errs, "action: email requires a recipient or a template ID")
		}
	case models.ActionTypeInventory:
		if action.ConfigString("operation") == "" {
			errs = append(errs, "action: inventory requires an operation")
		}
	case models.ActionTypeIntegration:
		service := action.ConfigString("service")
		if service == "" {
			errs = append(errs, "action: integration requires a service")
		}

		if service == "webhook" && action.ConfigString("endpoint") == "" {
			errs = append(errs, "action: webhook integration requires an endpoint")
		}
	case models.ActionTypeDataExport:
		if action.ConfigString("format") == "" {
			errs = append(errs, "action: data_export requires a format")
		}
	case models.ActionTypeCustom:
		if action.ConfigString("function") == "" && action.ConfigString("script") == "" {
			errs = append(errs, "action: custom requires a function name or an inline script")
		}
	case models.ActionTypeCustomer:
		// No required configuration beyond the common fields.
	case "":
		errs = append(errs, "action: type is required")
	default:
		errs = append(errs, fmt.Sprintf("action: unknown type %q", action.Type))
	}

	for _, msg := range rules.ValidateFilters(action.Conditions) {
		errs = append(errs, "action: "+msg)
	}

	return result(errs)
}

// configuredFilters decodes an optional "filters" list embedded in a
// trigger configuration. Shapes that do not decode are ignored here; the
// registration path treats them the same way.
func configuredFilters(configuration map[string]any) []models.Filter {
	raw, ok := configuration["filters"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var filters []models.Filter
	if err := json.Unmarshal(encoded, &filters); err != nil {
		return nil
	}

	return filters
}
