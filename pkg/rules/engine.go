// Package rules evaluates declarative filter predicates and restricted
// boolean expressions against nested event data. Evaluation is pure and
// fails closed: malformed filters never panic, they evaluate to false.
package rules

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/storewise/automation/pkg/models"
)

// Engine evaluates filters and expressions. Construct one per composition
// root and inject it; the engine keeps no state beyond its logger.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a rule engine that logs evaluation failures through the
// given logger.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger.With("module", "rules"),
	}
}

// EvaluateFilters reports whether every filter holds against data. An empty
// filter list is vacuously true. Evaluation short-circuits on the first
// failing filter; a filter that cannot be evaluated counts as failing.
func (e *Engine) EvaluateFilters(filters []models.Filter, data map[string]any) bool {
	for _, filter := range filters {
		if !e.EvaluateFilter(filter, data) {
			return false
		}
	}

	return true
}

// EvaluateFilter evaluates a single filter against data.
func (e *Engine) EvaluateFilter(filter models.Filter, data map[string]any) bool {
	fieldValue := ResolveField(data, filter.Field)

	result, err := compare(fieldValue, filter.Operator, filter.Value)
	if err != nil {
		e.logger.Warn("Filter evaluation failed",
			"field", filter.Field,
			"operator", filter.Operator,
			"error", err)

		return false
	}

	return result
}

// ResolveField traverses data along a dot-notation path. Any missing
// segment, or a segment into a non-map value, yields nil.
func ResolveField(data map[string]any, path string) any {
	if path == "" {
		return nil
	}

	var current any = data

	for _, segment := range strings.Split(path, ".") {
		record, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = record[segment]
		if !ok {
			return nil
		}
	}

	return current
}

func compare(fieldValue any, operator models.FilterOperator, value any) (bool, error) {
	// Null on either side leaves only equality defined; every other
	// operator evaluates to false.
	if fieldValue == nil || value == nil {
		switch operator {
		case models.OperatorEquals:
			return fieldValue == nil && value == nil, nil
		case models.OperatorNotEquals:
			return !(fieldValue == nil && value == nil), nil
		default:
			return false, nil
		}
	}

	switch operator {
	case models.OperatorEquals:
		return valuesEqual(fieldValue, value), nil
	case models.OperatorNotEquals:
		return !valuesEqual(fieldValue, value), nil
	case models.OperatorGreaterThan:
		return ordered(fieldValue, value, func(cmp int) bool { return cmp > 0 })
	case models.OperatorLessThan:
		return ordered(fieldValue, value, func(cmp int) bool { return cmp < 0 })
	case models.OperatorContains:
		return containsValue(fieldValue, value), nil
	case models.OperatorIn:
		return memberOf(fieldValue, value), nil
	case models.OperatorNotIn:
		return !memberOf(fieldValue, value), nil
	default:
		return false, ErrUnknownOperator
	}
}

// valuesEqual is strict equality with one concession: numeric values
// compare numerically across int/float kinds, since JSON decoding produces
// float64 for every number. Strings never equal numbers here; lossy
// string-to-number coercion is reserved for the ordering operators.
func valuesEqual(left, right any) bool {
	leftNum, leftOK := numericValue(left)
	rightNum, rightOK := numericValue(right)

	if leftOK && rightOK {
		return leftNum == rightNum
	}

	if leftOK != rightOK {
		return false
	}

	return reflect.DeepEqual(left, right)
}

// ordered compares numerically when both sides convert cleanly to numbers
// and falls back to lexicographic string ordering otherwise. The fallback
// is intentional, not an error: it mirrors how loosely-typed event data
// behaves upstream.
func ordered(left, right any, holds func(int) bool) (bool, error) {
	leftNum, leftOK := toNumber(left)
	rightNum, rightOK := toNumber(right)

	if leftOK && rightOK {
		switch {
		case leftNum > rightNum:
			return holds(1), nil
		case leftNum < rightNum:
			return holds(-1), nil
		default:
			return holds(0), nil
		}
	}

	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)

	if leftIsStr && rightIsStr {
		return holds(strings.Compare(leftStr, rightStr)), nil
	}

	return false, ErrNotComparable
}

func containsValue(fieldValue, value any) bool {
	switch haystack := fieldValue.(type) {
	case string:
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(stringify(value)))
	case map[string]any:
		for _, element := range haystack {
			if elementMatches(element, value) {
				return true
			}
		}

		return false
	}

	rv := reflect.ValueOf(fieldValue)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := range rv.Len() {
			if elementMatches(rv.Index(i).Interface(), value) {
				return true
			}
		}
	}

	return false
}

// elementMatches applies the contains test to one collection element:
// case-insensitive substring for string elements, strict equality for
// everything else.
func elementMatches(element, value any) bool {
	if str, ok := element.(string); ok {
		return strings.Contains(strings.ToLower(str), strings.ToLower(stringify(value)))
	}

	return valuesEqual(element, value)
}

// memberOf reports whether fieldValue is a member of the sequence value.
// A non-sequence value is never a match, so "in" fails closed and the
// caller negates for "not_in".
func memberOf(fieldValue, value any) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}

	for i := range rv.Len() {
		if valuesEqual(rv.Index(i).Interface(), fieldValue) {
			return true
		}
	}

	return false
}

// numericValue converts genuinely numeric types only.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// toNumber additionally accepts numeric strings, for the ordering fallback.
func toNumber(value any) (float64, bool) {
	if num, ok := numericValue(value); ok {
		return num, true
	}

	if str, ok := value.(string); ok {
		num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)

		return num, err == nil
	}

	return 0, false
}

func stringify(value any) string {
	if str, ok := value.(string); ok {
		return str
	}

	if num, ok := toNumber(value); ok {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}

	if b, ok := value.(bool); ok {
		return strconv.FormatBool(b)
	}

	return ""
}
