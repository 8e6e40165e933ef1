package rules

import "errors"

var (
	// ErrUnknownOperator is reported when a filter names an operator the
	// engine does not implement.
	ErrUnknownOperator = errors.New("unknown filter operator")

	// ErrNotComparable is reported when an ordering operator is applied to
	// values with no defined ordering.
	ErrNotComparable = errors.New("values are not comparable")
)
