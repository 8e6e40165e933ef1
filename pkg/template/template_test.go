package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	variables := map[string]any{
		"threshold": 5.0,
		"email":     "ops@store.test",
		"urgent":    true,
	}

	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{
			name:     "plain string untouched",
			input:    "no placeholders here",
			expected: "no placeholders here",
		},
		{
			name:     "whole-string placeholder keeps native type",
			input:    "{{threshold}}",
			expected: 5.0,
		},
		{
			name:     "embedded placeholder stringifies",
			input:    "alert when below {{threshold}} units",
			expected: "alert when below 5 units",
		},
		{
			name:     "boolean placeholder",
			input:    "urgent={{urgent}}",
			expected: "urgent=true",
		},
		{
			name:     "placeholder with inner spacing",
			input:    "send to {{ email }}",
			expected: "send to ops@store.test",
		},
		{
			name:     "unknown placeholder left intact",
			input:    "hello {{nobody}}",
			expected: "hello {{nobody}}",
		},
		{
			name:     "non-string leaves pass through",
			input:    42.0,
			expected: 42.0,
		},
		{
			name:     "sequences are walked",
			input:    []any{"{{email}}", "static", 1.0},
			expected: []any{"ops@store.test", "static", 1.0},
		},
		{
			name: "nested maps are walked",
			input: map[string]any{
				"recipient": "{{email}}",
				"payload": map[string]any{
					"message": "threshold is {{threshold}}",
					"items":   []any{"{{threshold}}"},
				},
			},
			expected: map[string]any{
				"recipient": "ops@store.test",
				"payload": map[string]any{
					"message": "threshold is 5",
					"items":   []any{5.0},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Substitute(tt.input, variables))
		})
	}
}

func TestSubstitute_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{"a": "{{x}}", "list": []any{"{{x}}"}}

	Substitute(input, map[string]any{"x": "replaced"})

	assert.Equal(t, "{{x}}", input["a"])
	assert.Equal(t, "{{x}}", input["list"].([]any)[0])
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, "7", Stringify(7))
	assert.Equal(t, "false", Stringify(false))
	assert.Equal(t, "a,b", Stringify([]string{"a", "b"}))
	assert.Equal(t, "1,two", Stringify([]any{1.0, "two"}))
	assert.Equal(t, "", Stringify(nil))
}
