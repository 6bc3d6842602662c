package mcpserver

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
	"constellar/internal/generator/tools"
)

func newTestServer() *Server {
	factory := excalidraw.NewFactory(excalidraw.DefaultTheme(), excalidraw.WithRand(rand.New(rand.NewPCG(5, 6))))
	return New(tools.NewRegistry(factory), nil)
}

// call отправляет JSON-RPC сообщение и возвращает поле result ответа.
func call(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()

	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.MCP().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var out struct {
		Result map[string]any `json:"result"`
		Error  any            `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Nil(t, out.Error, string(data))
	return out.Result
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer()

	result := call(t, s, "tools/list", map[string]any{})
	list, ok := result["tools"].([]any)
	require.True(t, ok)
	require.Len(t, list, 9)

	byName := make(map[string]map[string]any)
	for _, item := range list {
		tool := item.(map[string]any)
		byName[tool["name"].(string)] = tool
	}

	flowchart := byName["create_flowchart"]
	require.NotNil(t, flowchart)
	schema := flowchart["inputSchema"].(map[string]any)
	assert.ElementsMatch(t, []any{"title", "steps"}, schema["required"])

	props := schema["properties"].(map[string]any)
	steps := props["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	assert.Equal(t, map[string]any{"type": "string"}, steps["items"])
}

func TestServer_CallTool(t *testing.T) {
	s := newTestServer()

	result := call(t, s, "tools/call", map[string]any{
		"name":      "create_rectangle",
		"arguments": map[string]any{"x": 10, "y": 20, "label": "API"},
	})
	assert.NotEqual(t, true, result["isError"])

	content := result["content"].([]any)
	require.Len(t, content, 1)
	text := content[0].(map[string]any)["text"].(string)

	var payload struct {
		Elements []models.Element `json:"elements"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	require.Len(t, payload.Elements, 2)
	assert.Equal(t, models.TypeRectangle, payload.Elements[0].Type)
	assert.Equal(t, 10.0, payload.Elements[0].X)
	assert.Equal(t, models.TypeText, payload.Elements[1].Type)
}

func TestServer_CallTool_MissingArgument(t *testing.T) {
	s := newTestServer()

	result := call(t, s, "tools/call", map[string]any{
		"name":      "create_flowchart",
		"arguments": map[string]any{"title": "no steps"},
	})
	assert.Equal(t, true, result["isError"])

	content := result["content"].([]any)
	assert.Contains(t, content[0].(map[string]any)["text"], "steps")
}

func TestServer_Serve_UnknownTransport(t *testing.T) {
	assert.Error(t, newTestServer().Serve("carrier-pigeon", ""))
}
