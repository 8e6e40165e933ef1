package registry

import "github.com/storewise/automation/pkg/models"

// RegisterBuiltins installs the definitions for every trigger and action
// type the engine ships with.
func RegisterBuiltins(r *Registry) {
	registerBuiltinTriggers(r)
	registerBuiltinActions(r)
}

func registerBuiltinTriggers(r *Registry) {
	r.RegisterTrigger(TriggerDefinition{
		Type:        models.TriggerTypeDataChange,
		Name:        "Data Change",
		Description: "Fires when a row on a watched table is inserted, updated, or deleted",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"table"},
			"properties": map[string]any{
				"table": map[string]any{
					"type": "string",
					"enum": []any{"products", "orders", "customers", "inventory"},
				},
				"operation": map[string]any{
					"type": "string",
					"enum": []any{"insert", "update", "delete"},
				},
				"conditions": map[string]any{
					"type": "object",
				},
				"filters": map[string]any{
					"type": "array",
				},
			},
		},
	})

	r.RegisterTrigger(TriggerDefinition{
		Type:        models.TriggerTypeTimeBased,
		Name:        "Schedule",
		Description: "Fires on a recurring cron schedule",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"schedule"},
			"properties": map[string]any{
				"schedule": map[string]any{"type": "string"},
				"timezone": map[string]any{"type": "string"},
			},
		},
	})

	r.RegisterTrigger(TriggerDefinition{
		Type:        models.TriggerTypeExternalEvent,
		Name:        "External Event",
		Description: "Fires when a named event arrives on the webhook endpoint",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_type": map[string]any{"type": "string"},
			},
		},
	})

	r.RegisterTrigger(TriggerDefinition{
		Type:        models.TriggerTypeThreshold,
		Name:        "Metric Threshold",
		Description: "Fires while a store metric satisfies a comparison",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"metric", "operator", "value"},
			"properties": map[string]any{
				"metric":   map[string]any{"type": "string"},
				"operator": map[string]any{"type": "string", "enum": []any{"gt", "lt", "eq", "gte", "lte"}},
				"value":    map[string]any{"type": "number"},
			},
		},
	})
}

func registerBuiltinActions(r *Registry) {
	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeEmail,
		Name:        "Send Email",
		Description: "Sends an email to a recipient or through a stored template",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recipient":   map[string]any{"type": "string"},
				"template_id": map[string]any{"type": "string"},
				"subject":     map[string]any{"type": "string"},
				"body":        map[string]any{"type": "string"},
			},
			"anyOf": []any{
				map[string]any{"required": []any{"recipient"}},
				map[string]any{"required": []any{"template_id"}},
			},
		},
	})

	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeInventory,
		Name:        "Inventory Operation",
		Description: "Adjusts or reorders stock",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"operation"},
			"properties": map[string]any{
				"operation": map[string]any{"type": "string"},
				"quantity":  map[string]any{"type": "number"},
			},
		},
	})

	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeCustomer,
		Name:        "Customer Update",
		Description: "Tags or updates a customer record",
		Schema: map[string]any{
			"type": "object",
		},
	})

	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeIntegration,
		Name:        "Integration Call",
		Description: "Invokes an external service",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"service"},
			"properties": map[string]any{
				"service":  map[string]any{"type": "string"},
				"endpoint": map[string]any{"type": "string"},
			},
		},
	})

	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeDataExport,
		Name:        "Data Export",
		Description: "Exports store data in a chosen format",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"format"},
			"properties": map[string]any{
				"format": map[string]any{"type": "string", "enum": []any{"csv", "json", "pdf"}},
			},
		},
	})

	r.RegisterAction(ActionDefinition{
		Type:        models.ActionTypeCustom,
		Name:        "Custom Function",
		Description: "Runs a named custom function or stored script",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"function": map[string]any{"type": "string"},
				"script":   map[string]any{"type": "string"},
			},
			"anyOf": []any{
				map[string]any{"required": []any{"function"}},
				map[string]any{"required": []any{"script"}},
			},
		},
	})
}
