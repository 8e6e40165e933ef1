package models

// FilterOperator is the comparison applied between a resolved field value
// and the filter's configured value.
type FilterOperator string

const (
	OperatorEquals      FilterOperator = "equals"
	OperatorNotEquals   FilterOperator = "not_equals"
	OperatorContains    FilterOperator = "contains"
	OperatorGreaterThan FilterOperator = "greater_than"
	OperatorLessThan    FilterOperator = "less_than"
	OperatorIn          FilterOperator = "in"
	OperatorNotIn       FilterOperator = "not_in"
)

// KnownOperator reports whether op is one of the supported filter operators.
func KnownOperator(op FilterOperator) bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorContains,
		OperatorGreaterThan, OperatorLessThan, OperatorIn, OperatorNotIn:
		return true
	default:
		return false
	}
}

// Filter is a single declarative predicate: a dot-notation field path into
// nested event data, an operator, and a comparison value. Filters are
// stateless and immutable once evaluated.
type Filter struct {
	Field    string         `json:"field"    validate:"required"`
	Operator FilterOperator `json:"operator" validate:"required"`
	Value    any            `json:"value"`
}
