package tools

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
)

func newTestRegistry() *Registry {
	return NewRegistry(excalidraw.NewFactory(excalidraw.DefaultTheme(),
		excalidraw.WithRand(rand.New(rand.NewPCG(3, 4)))))
}

func jsonArgs(t *testing.T, raw string) Args {
	t.Helper()
	var args Args
	require.NoError(t, json.Unmarshal([]byte(raw), &args))
	return args
}

func TestRegistry_Tools(t *testing.T) {
	r := newTestRegistry()

	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.Params, tool.Name)
	}

	assert.Equal(t, []string{
		"create_rectangle",
		"create_ellipse",
		"create_diamond",
		"create_arrow",
		"create_line",
		"create_text_standalone",
		"create_flowchart",
		"create_advanced_flowchart",
		"create_system_architecture",
	}, names)
}

func TestRegistry_Run(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name  string
		tool  string
		args  string
		count int
		first models.ElementType
	}{
		{name: "rectangle with label", tool: "create_rectangle", args: `{"x": 0, "y": 0, "label": "A"}`, count: 2, first: models.TypeRectangle},
		{name: "ellipse", tool: "create_ellipse", args: `{"x": 0, "y": 0}`, count: 1, first: models.TypeEllipse},
		{name: "diamond", tool: "create_diamond", args: `{"x": 0, "y": 0, "fillStyle": "hachure"}`, count: 1, first: models.TypeDiamond},
		{name: "arrow", tool: "create_arrow", args: `{"startX": 0, "startY": 0, "endX": 10, "endY": 10, "label": "go"}`, count: 2, first: models.TypeArrow},
		{name: "line", tool: "create_line", args: `{"startX": 0, "startY": 0, "endX": 10, "endY": 0}`, count: 1, first: models.TypeLine},
		{name: "text", tool: "create_text_standalone", args: `{"x": 1, "y": 2, "text": "hello", "fontFamily": 3}`, count: 1, first: models.TypeText},
		{name: "flowchart", tool: "create_flowchart", args: `{"title": "T", "steps": ["a", "b", "c"]}`, count: 11, first: models.TypeDiamond},
		{
			name:  "advanced flowchart",
			tool:  "create_advanced_flowchart",
			args:  `{"nodes": [{"id": "s", "type": "start", "label": "S", "next": "e"}, {"id": "e", "type": "end", "label": "E"}]}`,
			count: 5,
			first: models.TypeEllipse,
		},
		{
			name:  "architecture",
			tool:  "create_system_architecture",
			args:  `{"components": [{"id": "a", "type": "api", "label": "A"}, {"id": "d", "type": "database", "label": "D", "layer": 1}], "connections": [{"from1": "a", "to": "d"}]}`,
			count: 5,
			first: models.TypeRectangle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := r.Run(tt.tool, jsonArgs(t, tt.args))
			require.NoError(t, err)
			require.Len(t, elements, tt.count)
			assert.Equal(t, tt.first, elements[0].Type)
		})
	}
}

func TestRegistry_Run_Errors(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name string
		tool string
		args string
		err  error
	}{
		{name: "unknown tool", tool: "create_hexagon", args: `{}`, err: ErrUnknownTool},
		{name: "missing x", tool: "create_rectangle", args: `{"y": 0}`, err: ErrMissingArgument},
		{name: "missing steps", tool: "create_flowchart", args: `{"title": "T"}`, err: ErrMissingArgument},
		{name: "wrong type", tool: "create_rectangle", args: `{"x": "zero", "y": 0}`, err: ErrInvalidArgument},
		{name: "bad enum", tool: "create_arrow", args: `{"startX": 0, "startY": 0, "endX": 1, "endY": 1, "endArrowhead": "spear"}`, err: ErrInvalidArgument},
		{name: "bad node type", tool: "create_advanced_flowchart", args: `{"nodes": [{"id": "a", "type": "loop"}]}`, err: ErrInvalidArgument},
		{name: "node without id", tool: "create_advanced_flowchart", args: `{"nodes": [{"type": "process"}]}`, err: ErrInvalidArgument},
		{name: "steps not array", tool: "create_flowchart", args: `{"title": "T", "steps": "a"}`, err: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(tt.tool, jsonArgs(t, tt.args))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRegistry_Run_Origin(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name string
		tool string
		args string
		want float64
	}{
		{name: "flowchart at zero", tool: "create_flowchart", args: `{"title": "T", "steps": ["a"], "x": 0, "y": 0}`, want: 0},
		{name: "advanced flowchart at zero", tool: "create_advanced_flowchart", args: `{"nodes": [{"id": "s", "type": "start"}], "x": 0, "y": 0}`, want: 0},
		{name: "architecture at zero", tool: "create_system_architecture", args: `{"components": [{"id": "a"}], "connections": [], "x": 0, "y": 0}`, want: 0},
		{name: "advanced flowchart default", tool: "create_advanced_flowchart", args: `{"nodes": [{"id": "s", "type": "start"}]}`, want: 100},
		{name: "architecture default", tool: "create_system_architecture", args: `{"components": [{"id": "a"}], "connections": []}`, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := r.Run(tt.tool, jsonArgs(t, tt.args))
			require.NoError(t, err)
			require.NotEmpty(t, elements)
			assert.Equal(t, tt.want, elements[0].X)
			assert.Equal(t, tt.want, elements[0].Y)
		})
	}
}

func TestRegistry_Register_Replaces(t *testing.T) {
	r := newTestRegistry()
	before := len(r.Tools())

	r.Register(Tool{
		Name: "create_line",
		run: func(*excalidraw.Factory, Args) ([]models.Element, error) {
			return nil, nil
		},
	})

	assert.Len(t, r.Tools(), before)
	elements, err := r.Run("create_line", Args{})
	require.NoError(t, err)
	assert.Empty(t, elements)
}

func TestTool_InputSchema(t *testing.T) {
	r := newTestRegistry()

	tool, ok := r.Lookup("create_flowchart")
	require.True(t, ok)

	schema := tool.InputSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"title", "steps"}, schema["required"])

	properties := schema["properties"].(map[string]any)
	steps := properties["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	assert.Equal(t, map[string]any{"type": "string"}, steps["items"])

	arrow, _ := r.Lookup("create_arrow")
	end := arrow.InputSchema()["properties"].(map[string]any)["endArrowhead"].(map[string]any)
	assert.Equal(t, arrowheads, end["enum"])
}
