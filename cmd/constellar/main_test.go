package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constellar/internal/generator/models"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out)
	err := app.Run(context.Background(), append([]string{"constellar", "--seed", "42"}, args...))
	return out.String(), err
}

func decodeScene(t *testing.T, data string) *models.Scene {
	t.Helper()

	scene := models.NewScene()
	require.NoError(t, json.Unmarshal([]byte(data), scene))
	return scene
}

func TestFlowchartCommand(t *testing.T) {
	out, err := run(t, "", "flowchart", "--title", "Start Process", "--step", "Step A", "--step", "Step B")
	require.NoError(t, err)

	scene := decodeScene(t, out)
	var ys []float64
	for _, e := range scene.Elements {
		if e.Type == models.TypeDiamond || e.Type == models.TypeRectangle {
			ys = append(ys, e.Y)
		}
	}
	assert.Contains(t, ys, 100.0)
	assert.Contains(t, ys, 240.0)
	assert.Contains(t, ys, 380.0)

	again, err := run(t, "", "flowchart", "--title", "Start Process", "--step", "Step A", "--step", "Step B")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestFlowchartCommand_RequiresSteps(t *testing.T) {
	_, err := run(t, "", "flowchart", "--title", "Lonely")
	assert.Error(t, err)
}

func TestActionsCommand(t *testing.T) {
	input := `{"actions": [
		{"type": "create_shape", "shape": "rectangle", "x": 0, "y": 0},
		{"type": "create_shape", "shape": "rectangle", "x": 300, "y": 0},
		{"type": "connect", "from": 0, "to": 1}
	]}`

	out, err := run(t, input, "actions", "-")
	require.NoError(t, err)

	scene := decodeScene(t, out)
	require.Len(t, scene.Elements, 3)
	arrow := scene.Elements[2]
	assert.Equal(t, models.TypeArrow, arrow.Type)
	points := arrow.AbsolutePoints()
	assert.Equal(t, models.Point{X: 100, Y: 50}, points[0])
	assert.Equal(t, models.Point{X: 400, Y: 50}, points[len(points)-1])
}

func TestActionsCommand_MergesScene(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(scenePath, []byte(`{"type":"excalidraw","elements":[{"id":"keep","type":"text"}]}`), 0o644))

	reply := "Sure!\n```json\n{\"actions\": [{\"type\": \"create_text\", \"text\": \"hi\", \"x\": 1, \"y\": 2}]}\n```"
	outPath := filepath.Join(dir, "out.json")

	_, err := run(t, reply, "actions", "--scene", scenePath, "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	scene := decodeScene(t, string(data))
	require.Len(t, scene.Elements, 2)
	assert.Equal(t, "keep", scene.Elements[0].ID)
	assert.Equal(t, "hi", scene.Elements[1].Text)
}

func TestActionsCommand_NoActions(t *testing.T) {
	_, err := run(t, "just chatting", "actions")
	assert.ErrorContains(t, err, "no actions")
}

func TestRenderCommand(t *testing.T) {
	scene := `{"type":"excalidraw","elements":[{"id":"r","type":"rectangle","x":0,"y":0,"width":100,"height":50,"strokeColor":"#1e1e1e","backgroundColor":"transparent","strokeWidth":2,"opacity":100}]}`

	svg, err := run(t, scene, "render")
	require.NoError(t, err)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "<rect")

	raw, err := run(t, scene, "render", "--format", "png", "--width", "300")
	require.NoError(t, err)
	img, err := png.Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	_, err = run(t, scene, "render", "--format", "gif")
	assert.Error(t, err)
}

func TestToolsCommands(t *testing.T) {
	out, err := run(t, "", "tools", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "create_system_architecture")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 9)

	out, err = run(t, "", "tools", "run", "create_ellipse", "--args", `{"x": 5, "y": 5, "label": "DB"}`)
	require.NoError(t, err)
	scene := decodeScene(t, out)
	require.Len(t, scene.Elements, 2)
	assert.Equal(t, models.TypeEllipse, scene.Elements[0].Type)

	_, err = run(t, "", "tools", "run", "create_hexagon")
	assert.Error(t, err)
}
