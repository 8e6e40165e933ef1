package rules

import (
	"fmt"
	"reflect"

	"github.com/storewise/automation/pkg/models"
)

// ValidateFilter checks one filter for structural problems and returns
// human-readable errors. It never fails hard: the builder aggregates these
// into its own validation result before anything reaches storage.
func ValidateFilter(filter models.Filter) []string {
	var errs []string

	if filter.Field == "" {
		errs = append(errs, "filter field is required")
	}

	if filter.Operator == "" {
		errs = append(errs, "filter operator is required")
	} else if !models.KnownOperator(filter.Operator) {
		errs = append(errs, fmt.Sprintf("unknown filter operator %q", filter.Operator))
	}

	switch filter.Operator {
	case models.OperatorIn, models.OperatorNotIn:
		kind := reflect.ValueOf(filter.Value).Kind()
		if kind != reflect.Slice && kind != reflect.Array {
			errs = append(errs, fmt.Sprintf("operator %q requires an array value", filter.Operator))
		}
	case models.OperatorGreaterThan, models.OperatorLessThan, models.OperatorContains:
		if filter.Value == nil {
			errs = append(errs, fmt.Sprintf("operator %q requires a comparison value", filter.Operator))
		}
	}

	return errs
}

// ValidateFilters validates every filter in the list, prefixing each error
// with the filter's position.
func ValidateFilters(filters []models.Filter) []string {
	var errs []string

	for i, filter := range filters {
		for _, msg := range ValidateFilter(filter) {
			errs = append(errs, fmt.Sprintf("filter %d: %s", i, msg))
		}
	}

	return errs
}
