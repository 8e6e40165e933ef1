package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateExpression(t *testing.T) {
	engine := newTestEngine()

	context := map[string]any{
		"total":    150.0,
		"status":   "paid",
		"customer": map[string]any{"vip": true, "orders": 12.0},
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{"numeric comparison", "total > 100", true},
		{"string equality", "status == 'paid'", true},
		{"nested access", "customer.vip && customer.orders >= 10", true},
		{"boolean operators", "total < 100 || status == 'paid'", true},
		{"negation", "!(total > 200)", true},
		{"arithmetic", "total * 2 >= 300", true},
		{"modulo", "customer.orders % 2 == 0", true},
		{"math functions", "max(total, 200) == 200", true},
		{"round and floor", "floor(3.7) == 3 && round(3.5) == 4", true},
		{"len function", "len(status) == 4", true},
		{"contains function", "contains(status, 'PAI')", true},
		{"string case functions", "upper(status) == 'PAID'", true},
		{"json parsing", "json('{\"a\": 2}').a == 2", true},
		{"false outcome", "total > 1000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.EvaluateExpression(tt.expression, context))
		})
	}
}

func TestEvaluateExpression_ErrorsFailClosed(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name       string
		expression string
		context    map[string]any
	}{
		{"syntax error", "total >", map[string]any{"total": 1.0}},
		{"unknown identifier", "revenue > 10", map[string]any{}},
		{"unknown function", "exec('rm')", map[string]any{}},
		{"division by zero", "1 / 0 == 0", map[string]any{}},
		{"unterminated string", "status == 'paid", map[string]any{"status": "paid"}},
		{"non-boolean result", "'hello'", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, engine.EvaluateExpression(tt.expression, tt.context))
		})
	}
}

func TestEvaluateExpression_ContextIsSanitized(t *testing.T) {
	engine := newTestEngine()

	// Keys that are not plain identifiers are unreachable, so they can
	// never collide with the expression grammar.
	context := map[string]any{
		"valid_key":   true,
		"bad-key":     true,
		"1numeric":    true,
		"with space":  true,
		"with.dotted": true,
	}

	assert.True(t, engine.EvaluateExpression("valid_key", context))
	assert.False(t, engine.EvaluateExpression("bad-key", context))
}

func TestEvaluateExpression_NoAmbientAccess(t *testing.T) {
	engine := newTestEngine()

	// Nothing resembling process or environment access is callable.
	assert.False(t, engine.EvaluateExpression("env('PATH') != ''", nil))
	assert.False(t, engine.EvaluateExpression("os.exit(1)", nil))
}
