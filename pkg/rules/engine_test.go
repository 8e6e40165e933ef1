package rules

import (
	"log/slog"
	"os"
	"testing"

	"github.com/storewise/automation/pkg/models"
	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestEvaluateFilters_EmptyListIsVacuouslyTrue(t *testing.T) {
	engine := newTestEngine()

	assert.True(t, engine.EvaluateFilters(nil, map[string]any{"anything": 1}))
	assert.True(t, engine.EvaluateFilters([]models.Filter{}, nil))
}

func TestEvaluateFilters_ConjunctiveShortCircuit(t *testing.T) {
	engine := newTestEngine()
	data := map[string]any{"status": "paid", "total": 42.0}

	filters := []models.Filter{
		{Field: "status", Operator: models.OperatorEquals, Value: "paid"},
		{Field: "total", Operator: models.OperatorGreaterThan, Value: 100},
	}

	assert.False(t, engine.EvaluateFilters(filters, data))

	filters[1].Value = 10
	assert.True(t, engine.EvaluateFilters(filters, data))
}

func TestEvaluateFilter_Equality(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		filter   models.Filter
		data     map[string]any
		expected bool
	}{
		{
			name:     "string equality",
			filter:   models.Filter{Field: "status", Operator: models.OperatorEquals, Value: "shipped"},
			data:     map[string]any{"status": "shipped"},
			expected: true,
		},
		{
			name:     "numeric equality across int and float",
			filter:   models.Filter{Field: "count", Operator: models.OperatorEquals, Value: 3},
			data:     map[string]any{"count": 3.0},
			expected: true,
		},
		{
			name:     "string does not equal number",
			filter:   models.Filter{Field: "count", Operator: models.OperatorEquals, Value: 3},
			data:     map[string]any{"count": "3"},
			expected: false,
		},
		{
			name:     "not_equals on differing values",
			filter:   models.Filter{Field: "status", Operator: models.OperatorNotEquals, Value: "cancelled"},
			data:     map[string]any{"status": "paid"},
			expected: true,
		},
		{
			name:     "missing field equals null value",
			filter:   models.Filter{Field: "missing", Operator: models.OperatorEquals, Value: nil},
			data:     map[string]any{},
			expected: true,
		},
		{
			name:     "missing field fails ordering",
			filter:   models.Filter{Field: "missing", Operator: models.OperatorGreaterThan, Value: 1},
			data:     map[string]any{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.EvaluateFilter(tt.filter, tt.data))
		})
	}
}

func TestEvaluateFilter_Ordering(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		filter   models.Filter
		data     map[string]any
		expected bool
	}{
		{
			name:     "numeric greater_than",
			filter:   models.Filter{Field: "total", Operator: models.OperatorGreaterThan, Value: 100},
			data:     map[string]any{"total": 150.5},
			expected: true,
		},
		{
			name:     "numeric less_than",
			filter:   models.Filter{Field: "stock", Operator: models.OperatorLessThan, Value: 5},
			data:     map[string]any{"stock": 2},
			expected: true,
		},
		{
			name:     "numeric string converts cleanly",
			filter:   models.Filter{Field: "total", Operator: models.OperatorGreaterThan, Value: "100"},
			data:     map[string]any{"total": 150},
			expected: true,
		},
		{
			name:     "lexicographic fallback for strings",
			filter:   models.Filter{Field: "sku", Operator: models.OperatorLessThan, Value: "b-100"},
			data:     map[string]any{"sku": "a-200"},
			expected: true,
		},
		{
			name:     "incomparable types fail closed",
			filter:   models.Filter{Field: "meta", Operator: models.OperatorGreaterThan, Value: 1},
			data:     map[string]any{"meta": map[string]any{}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.EvaluateFilter(tt.filter, tt.data))
		})
	}
}

func TestEvaluateFilter_Contains(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		filter   models.Filter
		data     map[string]any
		expected bool
	}{
		{
			name:     "case-insensitive substring",
			filter:   models.Filter{Field: "name", Operator: models.OperatorContains, Value: "WIDGET"},
			data:     map[string]any{"name": "Deluxe widget, blue"},
			expected: true,
		},
		{
			name:     "sequence with string elements",
			filter:   models.Filter{Field: "tags", Operator: models.OperatorContains, Value: "sale"},
			data:     map[string]any{"tags": []any{"Clearance-SALE", "summer"}},
			expected: true,
		},
		{
			name:     "sequence with non-string elements",
			filter:   models.Filter{Field: "codes", Operator: models.OperatorContains, Value: 7},
			data:     map[string]any{"codes": []any{3.0, 7.0, 11.0}},
			expected: true,
		},
		{
			name:     "map matches against values",
			filter:   models.Filter{Field: "attrs", Operator: models.OperatorContains, Value: "red"},
			data:     map[string]any{"attrs": map[string]any{"color": "Dark Red"}},
			expected: true,
		},
		{
			name:     "no match",
			filter:   models.Filter{Field: "name", Operator: models.OperatorContains, Value: "gadget"},
			data:     map[string]any{"name": "widget"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.EvaluateFilter(tt.filter, tt.data))
		})
	}
}

func TestEvaluateFilter_Membership(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		filter   models.Filter
		data     map[string]any
		expected bool
	}{
		{
			name:     "member of sequence",
			filter:   models.Filter{Field: "status", Operator: models.OperatorIn, Value: []any{"paid", "shipped"}},
			data:     map[string]any{"status": "paid"},
			expected: true,
		},
		{
			name:     "not a member",
			filter:   models.Filter{Field: "status", Operator: models.OperatorIn, Value: []any{"cancelled"}},
			data:     map[string]any{"status": "paid"},
			expected: false,
		},
		{
			name:     "in with non-sequence value fails closed",
			filter:   models.Filter{Field: "status", Operator: models.OperatorIn, Value: "paid"},
			data:     map[string]any{"status": "paid"},
			expected: false,
		},
		{
			name:     "not_in with non-sequence value is true",
			filter:   models.Filter{Field: "status", Operator: models.OperatorNotIn, Value: "paid"},
			data:     map[string]any{"status": "paid"},
			expected: true,
		},
		{
			name:     "not_in excludes members",
			filter:   models.Filter{Field: "status", Operator: models.OperatorNotIn, Value: []any{"paid"}},
			data:     map[string]any{"status": "paid"},
			expected: false,
		},
		{
			name:     "in with missing field is false",
			filter:   models.Filter{Field: "missing", Operator: models.OperatorIn, Value: []any{"paid", "shipped"}},
			data:     map[string]any{"status": "paid"},
			expected: false,
		},
		{
			name:     "not_in with missing field is false",
			filter:   models.Filter{Field: "missing", Operator: models.OperatorNotIn, Value: []any{"paid", "shipped"}},
			data:     map[string]any{"status": "paid"},
			expected: false,
		},
		{
			name:     "numeric membership across types",
			filter:   models.Filter{Field: "qty", Operator: models.OperatorIn, Value: []any{1, 2, 3}},
			data:     map[string]any{"qty": 2.0},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.EvaluateFilter(tt.filter, tt.data))
		})
	}
}

func TestResolveField_NestedPaths(t *testing.T) {
	data := map[string]any{
		"order": map[string]any{
			"customer": map[string]any{"email": "a@b.com"},
			"total":    99.0,
		},
	}

	assert.Equal(t, "a@b.com", ResolveField(data, "order.customer.email"))
	assert.Equal(t, 99.0, ResolveField(data, "order.total"))
	assert.Nil(t, ResolveField(data, "order.customer.phone"))
	assert.Nil(t, ResolveField(data, "order.total.amount"))
	assert.Nil(t, ResolveField(data, "missing.path"))
	assert.Nil(t, ResolveField(data, ""))
}

func TestEvaluateFilter_UnknownOperatorFailsClosed(t *testing.T) {
	engine := newTestEngine()

	filter := models.Filter{Field: "status", Operator: "matches", Value: "x"}
	assert.False(t, engine.EvaluateFilter(filter, map[string]any{"status": "x"}))
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name       string
		filter     models.Filter
		wantErrors int
	}{
		{
			name:       "valid equals filter",
			filter:     models.Filter{Field: "status", Operator: models.OperatorEquals, Value: "paid"},
			wantErrors: 0,
		},
		{
			name:       "missing field",
			filter:     models.Filter{Operator: models.OperatorEquals, Value: "x"},
			wantErrors: 1,
		},
		{
			name:       "missing operator",
			filter:     models.Filter{Field: "status"},
			wantErrors: 1,
		},
		{
			name:       "unknown operator",
			filter:     models.Filter{Field: "status", Operator: "matches", Value: "x"},
			wantErrors: 1,
		},
		{
			name:       "in requires array value",
			filter:     models.Filter{Field: "status", Operator: models.OperatorIn, Value: "paid"},
			wantErrors: 1,
		},
		{
			name:       "in with array value is valid",
			filter:     models.Filter{Field: "status", Operator: models.OperatorIn, Value: []any{"paid"}},
			wantErrors: 0,
		},
		{
			name:       "contains requires value",
			filter:     models.Filter{Field: "name", Operator: models.OperatorContains},
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateFilter(tt.filter)
			assert.Len(t, errs, tt.wantErrors)
		})
	}
}

func TestValidateFilters_PrefixesPosition(t *testing.T) {
	errs := ValidateFilters([]models.Filter{
		{Field: "ok", Operator: models.OperatorEquals, Value: 1},
		{Operator: models.OperatorEquals, Value: 1},
	})

	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "filter 1:")
}
