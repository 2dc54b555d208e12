package nodeconfig_test

import (
	"testing"

	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
	"github.com/stretchr/testify/assert"
)

func TestStringList(t *testing.T) {
	tests := []struct {
		name     string
		config   map[string]any
		expected []string
	}{
		{name: "any list", config: map[string]any{"k": []any{"price", " cost ", 3, ""}}, expected: []string{"price", "cost"}},
		{name: "string list", config: map[string]any{"k": []string{"a", "b"}}, expected: []string{"a", "b"}},
		{name: "comma string", config: map[string]any{"k": "a, b,,c"}, expected: []string{"a", "b", "c"}},
		{name: "absent", config: map[string]any{}, expected: []string{}},
		{name: "nil config", config: nil, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nodeconfig.StringList(tt.config, "k"))
		})
	}
}

func TestInt(t *testing.T) {
	value, ok := nodeconfig.Int(map[string]any{"h": float64(9)}, "h")
	assert.True(t, ok)
	assert.Equal(t, 9, value)

	value, ok = nodeconfig.Int(map[string]any{"h": "17"}, "h")
	assert.True(t, ok)
	assert.Equal(t, 17, value)

	_, ok = nodeconfig.Int(map[string]any{"h": "x"}, "h")
	assert.False(t, ok)

	_, ok = nodeconfig.Int(map[string]any{}, "h")
	assert.False(t, ok)
}

func TestStringMap(t *testing.T) {
	out := nodeconfig.StringMap(map[string]any{"headers": map[string]any{"X-A": "1", "X-B": 2}}, "headers")

	assert.Equal(t, map[string]string{"X-A": "1"}, out)
}
