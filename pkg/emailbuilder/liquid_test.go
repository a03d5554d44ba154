package emailbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiquidEngineRender(t *testing.T) {
	engine := NewLiquidEngine()

	tests := []struct {
		name     string
		content  string
		data     map[string]interface{}
		expected string
	}{
		{
			name:     "conditional true branch",
			content:  "{% if vip %}front row{% else %}balcony{% endif %}",
			data:     map[string]interface{}{"vip": true},
			expected: "front row",
		},
		{
			name:     "conditional false branch",
			content:  "{% if vip %}front row{% else %}balcony{% endif %}",
			data:     map[string]interface{}{"vip": false},
			expected: "balcony",
		},
		{
			name:     "variable substitution",
			content:  "Hello {{ name }}",
			data:     map[string]interface{}{"name": "Ana"},
			expected: "Hello Ana",
		},
		{
			name:     "loop",
			content:  "{% for item in items %}[{{ item }}]{% endfor %}",
			data:     map[string]interface{}{"items": []string{"a", "b"}},
			expected: "[a][b]",
		},
		{
			name:     "no markup passes through",
			content:  "plain text",
			data:     nil,
			expected: "plain text",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := engine.Render(test.content, test.data)
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestLiquidEngineRejectsOversizedContent(t *testing.T) {
	engine := NewLiquidEngine()
	huge := "{% if x %}" + strings.Repeat("a", defaultLiquidMaxBytes) + "{% endif %}"

	_, err := engine.Render(huge, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestLiquidEngineSyntaxError(t *testing.T) {
	engine := NewLiquidEngine()

	_, err := engine.Render("{% if %}{% endunless %}", nil)
	assert.Error(t, err)
}
