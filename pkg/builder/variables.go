package builder

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/template"
)

// TemplateError reports a template lookup or variable problem during
// CreateFromTemplate.
type TemplateError struct {
	TemplateID string
	Variable   string
	Reason     string
}

func (e *TemplateError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("template %s: variable %q: %s", e.TemplateID, e.Variable, e.Reason)
	}

	return fmt.Sprintf("template %s: %s", e.TemplateID, e.Reason)
}

// resolveVariables checks supplied values against the template's variable
// declarations and fills in defaults, producing the final substitution map.
func resolveVariables(tmpl *models.WorkflowTemplate, supplied map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(tmpl.Variables))

	for _, decl := range tmpl.Variables {
		value, provided := supplied[decl.Key]

		if !provided {
			if decl.Required && decl.Default == nil {
				return nil, &TemplateError{
					TemplateID: tmpl.ID,
					Variable:   decl.Key,
					Reason:     "required variable is missing",
				}
			}

			if decl.Default != nil {
				resolved[decl.Key] = decl.Default
			}

			continue
		}

		checked, err := checkVariable(tmpl.ID, decl, value)
		if err != nil {
			return nil, err
		}

		resolved[decl.Key] = checked
	}

	return resolved, nil
}

func checkVariable(templateID string, decl models.TemplateVariable, value any) (any, error) {
	fail := func(reason string) error {
		return &TemplateError{TemplateID: templateID, Variable: decl.Key, Reason: reason}
	}

	switch decl.Type {
	case models.VariableTypeNumber:
		num, ok := coerceNumber(value)
		if !ok {
			return nil, fail(fmt.Sprintf("expected a number, got %T", value))
		}

		return num, nil
	case models.VariableTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fail(fmt.Sprintf("expected a boolean, got %T", value))
		}

		return b, nil
	case models.VariableTypeSelect:
		str := template.Stringify(value)
		if !slices.Contains(decl.Options, str) {
			return nil, fail(fmt.Sprintf("value %q is not one of the allowed options", str))
		}

		return str, nil
	case models.VariableTypeMultiSelect:
		selections, ok := stringSlice(value)
		if !ok {
			return nil, fail("expected a list of options")
		}

		for _, selection := range selections {
			if !slices.Contains(decl.Options, selection) {
				return nil, fail(fmt.Sprintf("value %q is not one of the allowed options", selection))
			}
		}

		return selections, nil
	default:
		// string: anything presentable as text is accepted.
		return template.Stringify(value), nil
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		num, err := strconv.ParseFloat(v, 64)

		return num, err == nil
	default:
		return 0, false
	}
}

func stringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		result := make([]string, len(v))

		for i, element := range v {
			str, ok := element.(string)
			if !ok {
				return nil, false
			}

			result[i] = str
		}

		return result, true
	default:
		return nil, false
	}
}
