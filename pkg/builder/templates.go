package builder

import "github.com/storewise/automation/pkg/models"

// DefaultTemplates returns the built-in catalog of workflow blueprints.
// Every definition carries {{key}} placeholders bound by the template's
// declared variables; CreateFromTemplate resolves them.
func DefaultTemplates() []*models.WorkflowTemplate {
	return []*models.WorkflowTemplate{
		{
			ID:          "low-stock-alert",
			Name:        "Low stock alert",
			Description: "Email the operations team while any product is below its stock threshold",
			Category:    "inventory",
			Variables: []models.TemplateVariable{
				{Key: "threshold", Type: models.VariableTypeNumber, Required: true, Description: "Fire while the low-inventory count exceeds this"},
				{Key: "alert_email", Type: models.VariableTypeString, Required: true, Description: "Recipient for the alert"},
			},
			Definition: &models.Workflow{
				Name:        "Low stock alert",
				Description: "Alerts when inventory runs low",
				Trigger: &models.Trigger{
					Name: "Low inventory threshold",
					Type: models.TriggerTypeThreshold,
					Configuration: map[string]any{
						"metric":   "low_inventory",
						"operator": "gt",
						"value":    "{{threshold}}",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Email operations",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"recipient": "{{alert_email}}",
							"subject":   "Low stock warning",
							"body":      "Inventory dropped below {{threshold}} units.",
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "cart-recovery",
			Name:        "Abandoned cart recovery",
			Description: "Send a discount to shoppers who abandoned their cart",
			Category:    "marketing",
			Variables: []models.TemplateVariable{
				{Key: "discount_code", Type: models.VariableTypeString, Required: true},
				{Key: "cart_threshold", Type: models.VariableTypeNumber, Required: false, Default: 1.0, Description: "Minimum abandoned carts before firing"},
			},
			Definition: &models.Workflow{
				Name:        "Abandoned cart recovery",
				Description: "Recovers abandoned carts with a discount email",
				Trigger: &models.Trigger{
					Name: "Abandoned carts present",
					Type: models.TriggerTypeThreshold,
					Configuration: map[string]any{
						"metric":   "abandoned_carts",
						"operator": "gte",
						"value":    "{{cart_threshold}}",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Send recovery email",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"template_id": "cart-recovery",
							"payload":     map[string]any{"discount_code": "{{discount_code}}"},
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "welcome-series",
			Name:        "Customer welcome series",
			Description: "Greet every new customer and tag them for onboarding",
			Category:    "lifecycle",
			Variables: []models.TemplateVariable{
				{Key: "email_template", Type: models.VariableTypeString, Required: false, Default: "welcome"},
				{Key: "onboarding_tag", Type: models.VariableTypeString, Required: false, Default: "new-customer"},
			},
			Definition: &models.Workflow{
				Name:        "Customer welcome series",
				Description: "Welcomes new customers",
				Trigger: &models.Trigger{
					Name: "New customer",
					Type: models.TriggerTypeDataChange,
					Configuration: map[string]any{
						"table":     "customers",
						"operation": "insert",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Send welcome email",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"template_id": "{{email_template}}",
						},
						Order: 0,
					},
					{
						Name: "Tag customer",
						Type: models.ActionTypeCustomer,
						Configuration: map[string]any{
							"operation": "add_tag",
							"tag":       "{{onboarding_tag}}",
						},
						Order: 1,
					},
				},
			},
		},
		{
			ID:          "review-request",
			Name:        "Review request",
			Description: "Ask for a review once an order is delivered",
			Category:    "marketing",
			Variables: []models.TemplateVariable{
				{Key: "template_id", Type: models.VariableTypeString, Required: true},
			},
			Definition: &models.Workflow{
				Name:        "Review request",
				Description: "Requests reviews for delivered orders",
				Trigger: &models.Trigger{
					Name: "Order delivered",
					Type: models.TriggerTypeDataChange,
					Configuration: map[string]any{
						"table":      "orders",
						"operation":  "update",
						"conditions": map[string]any{"status": "delivered"},
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Send review request",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"template_id": "{{template_id}}",
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "price-optimization",
			Name:        "Scheduled price optimization",
			Description: "Run the price optimizer on a schedule",
			Category:    "pricing",
			Variables: []models.TemplateVariable{
				{
					Key:      "schedule",
					Type:     models.VariableTypeSelect,
					Required: true,
					Options:  []string{"0 0 * * *", "0 * * * *", "*/30 * * * *"},
				},
				{Key: "max_discount", Type: models.VariableTypeNumber, Required: false, Default: 15.0},
			},
			Definition: &models.Workflow{
				Name:        "Scheduled price optimization",
				Description: "Optimizes prices on a fixed cadence",
				Trigger: &models.Trigger{
					Name: "Optimization schedule",
					Type: models.TriggerTypeTimeBased,
					Configuration: map[string]any{
						"schedule": "{{schedule}}",
						"timezone": "UTC",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Optimize prices",
						Type: models.ActionTypeCustom,
						Configuration: map[string]any{
							"function": "optimize_prices",
							"payload":  map[string]any{"max_discount": "{{max_discount}}"},
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "bulk-import",
			Name:        "Bulk product import",
			Description: "Import a product feed when an external system requests it",
			Category:    "catalog",
			Variables: []models.TemplateVariable{
				{
					Key:      "source_format",
					Type:     models.VariableTypeSelect,
					Required: true,
					Options:  []string{"csv", "json"},
				},
			},
			Definition: &models.Workflow{
				Name:        "Bulk product import",
				Description: "Imports products from an external feed",
				Trigger: &models.Trigger{
					Name: "Import requested",
					Type: models.TriggerTypeExternalEvent,
					Configuration: map[string]any{
						"event_type": "import.requested",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Run import",
						Type: models.ActionTypeCustom,
						Configuration: map[string]any{
							"function": "import_products",
							"payload":  map[string]any{"format": "{{source_format}}"},
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "weekly-report",
			Name:        "Sales report export",
			Description: "Export and mail a sales report on a schedule",
			Category:    "reporting",
			Variables: []models.TemplateVariable{
				{
					Key:      "format",
					Type:     models.VariableTypeSelect,
					Required: true,
					Options:  []string{"csv", "json", "pdf"},
				},
				{Key: "recipient", Type: models.VariableTypeString, Required: true},
			},
			Definition: &models.Workflow{
				Name:        "Sales report export",
				Description: "Exports sales data on a fixed cadence",
				Trigger: &models.Trigger{
					Name: "Report schedule",
					Type: models.TriggerTypeTimeBased,
					Configuration: map[string]any{
						"schedule": "0 0 * * *",
						"timezone": "UTC",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Export sales data",
						Type: models.ActionTypeDataExport,
						Configuration: map[string]any{
							"format": "{{format}}",
							"report": "sales",
						},
						Order: 0,
					},
					{
						Name: "Mail report",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"recipient": "{{recipient}}",
							"subject":   "Sales report",
						},
						Order: 1,
					},
				},
			},
		},
		{
			ID:          "customer-winback",
			Name:        "Customer win-back",
			Description: "Re-engage customers who have gone quiet",
			Category:    "lifecycle",
			Variables: []models.TemplateVariable{
				{Key: "inactive_days", Type: models.VariableTypeNumber, Required: true},
				{Key: "discount_code", Type: models.VariableTypeString, Required: false, Default: ""},
			},
			Definition: &models.Workflow{
				Name:        "Customer win-back",
				Description: "Targets inactive customers daily",
				Trigger: &models.Trigger{
					Name: "Daily win-back run",
					Type: models.TriggerTypeTimeBased,
					Configuration: map[string]any{
						"schedule": "0 0 * * *",
						"timezone": "UTC",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Segment inactive customers",
						Type: models.ActionTypeCustomer,
						Configuration: map[string]any{
							"operation":     "segment",
							"inactive_days": "{{inactive_days}}",
						},
						Order: 0,
					},
					{
						Name: "Send win-back offer",
						Type: models.ActionTypeEmail,
						Configuration: map[string]any{
							"template_id": "winback",
							"payload":     map[string]any{"discount_code": "{{discount_code}}"},
						},
						Order: 1,
					},
				},
			},
		},
		{
			ID:          "seasonal-campaign",
			Name:        "Seasonal campaign",
			Description: "Launch a scheduled campaign across the selected channels",
			Category:    "marketing",
			Variables: []models.TemplateVariable{
				{Key: "campaign_name", Type: models.VariableTypeString, Required: true},
				{
					Key:      "channels",
					Type:     models.VariableTypeMultiSelect,
					Required: true,
					Options:  []string{"email", "sms", "push"},
				},
			},
			Definition: &models.Workflow{
				Name:        "Seasonal campaign",
				Description: "Runs a seasonal marketing campaign",
				Trigger: &models.Trigger{
					Name: "Campaign schedule",
					Type: models.TriggerTypeTimeBased,
					Configuration: map[string]any{
						"schedule": "0 0 * * *",
						"timezone": "UTC",
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Launch campaign",
						Type: models.ActionTypeCustom,
						Configuration: map[string]any{
							"function": "launch_campaign",
							"payload": map[string]any{
								"name":     "{{campaign_name}}",
								"channels": "{{channels}}",
							},
						},
						Order: 0,
					},
				},
			},
		},
		{
			ID:          "auto-reorder",
			Name:        "Automatic reorder",
			Description: "Raise a purchase order with the supplier while stock is low",
			Category:    "inventory",
			Variables: []models.TemplateVariable{
				{Key: "endpoint", Type: models.VariableTypeString, Required: true, Description: "Supplier webhook endpoint"},
				{Key: "reorder_quantity", Type: models.VariableTypeNumber, Required: false, Default: 10.0},
			},
			Definition: &models.Workflow{
				Name:        "Automatic reorder",
				Description: "Reorders stock from the supplier",
				Trigger: &models.Trigger{
					Name: "Stock below reorder point",
					Type: models.TriggerTypeThreshold,
					Configuration: map[string]any{
						"metric":   "low_inventory",
						"operator": "gt",
						"value":    0,
					},
					Enabled: true,
				},
				Actions: []*models.Action{
					{
						Name: "Notify supplier",
						Type: models.ActionTypeIntegration,
						Configuration: map[string]any{
							"service":  "webhook",
							"endpoint": "{{endpoint}}",
							"payload":  map[string]any{"quantity": "{{reorder_quantity}}"},
						},
						Order: 0,
					},
				},
			},
		},
	}
}
