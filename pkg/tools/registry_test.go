package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool — минимальный инструмент для тестов реестра.
type fakeTool struct {
	def ToolDefinition
}

func (t *fakeTool) Definition() ToolDefinition { return t.def }

func (t *fakeTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	return `{"ok":true}`, nil
}

func validDef(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "test tool",
		Parameters: JSONSchema{
			"type": "object",
			"properties": map[string]interface{}{
				"q": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"q"},
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&fakeTool{def: validDef("search_products")})
	require.NoError(t, err)

	tool, err := r.Get("search_products")
	require.NoError(t, err)
	assert.Equal(t, "search_products", tool.Definition().Name)

	_, err = r.Get("unknown_tool")
	assert.Error(t, err)
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		def  ToolDefinition
	}{
		{
			name: "empty name",
			def: ToolDefinition{
				Parameters: JSONSchema{"type": "object"},
			},
		},
		{
			name: "nil parameters",
			def: ToolDefinition{
				Name: "broken",
			},
		},
		{
			name: "missing type field",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"properties": map[string]interface{}{}},
			},
		},
		{
			name: "type is not object",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"type": "array"},
			},
		},
		{
			name: "required is not an array",
			def: ToolDefinition{
				Name: "broken",
				Parameters: JSONSchema{
					"type":     "object",
					"required": "q",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(&fakeTool{def: tt.def})
			assert.Error(t, err)
		})
	}
}

func TestRegistryGetDefinitions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{def: validDef("a")}))
	require.NoError(t, r.Register(&fakeTool{def: validDef("b")}))

	defs := r.GetDefinitions()
	assert.Len(t, defs, 2)
}
