// Package template provides deep placeholder substitution for workflow
// blueprints. Substitution walks an arbitrary value tree of strings,
// sequences, and maps, replacing {{key}} placeholders with variable values.
// It is pure and independent of any specific workflow shape.
package template

import (
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Substitute walks value recursively and replaces every {{key}} occurrence
// in string leaves with the stringified variable value. Sequences and maps
// are rebuilt, never mutated in place; non-string leaves pass through
// untouched. Unknown placeholders are left as-is so a missed variable is
// visible in the output rather than silently blanked.
func Substitute(value any, variables map[string]any) any {
	switch v := value.(type) {
	case string:
		return substituteString(v, variables)
	case []any:
		result := make([]any, len(v))
		for i, element := range v {
			result[i] = Substitute(element, variables)
		}

		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, element := range v {
			result[key] = Substitute(element, variables)
		}

		return result
	default:
		return value
	}
}

// substituteString replaces placeholders within one string. When the whole
// string is a single placeholder the variable's native value is returned,
// preserving numbers and booleans instead of flattening them to text.
func substituteString(input string, variables map[string]any) any {
	if match := placeholderPattern.FindStringSubmatch(input); match != nil && match[0] == input {
		if value, ok := variables[match[1]]; ok {
			return value
		}

		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(placeholder string) string {
		key := placeholderPattern.FindStringSubmatch(placeholder)[1]

		value, ok := variables[key]
		if !ok {
			return placeholder
		}

		return Stringify(value)
	})
}

// Stringify renders a variable value the way it should appear inside a
// larger string.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, element := range v {
			parts[i] = Stringify(element)
		}

		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return ""
	}
}
