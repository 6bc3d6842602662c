package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"constellar/internal/generator/parser"
)

// ============================================================
// Mock client
// ============================================================

const mockFlowchart = "I'll create a simple flowchart with three connected steps for you.\n\n```json\n" + `{
  "actions": [
    {"type": "create_shape", "shape": "rectangle", "text": "Start", "x": 100, "y": 150, "width": 150, "height": 80},
    {"type": "create_shape", "shape": "rectangle", "text": "Process", "x": 350, "y": 150, "width": 150, "height": 80},
    {"type": "create_shape", "shape": "rectangle", "text": "End", "x": 600, "y": 150, "width": 150, "height": 80},
    {"type": "connect", "from": 0, "to": 1},
    {"type": "connect", "from": 1, "to": 2}
  ]
}` + "\n```\n\nI've created a basic flowchart with Start → Process → End nodes connected by arrows."

const mockNeural = "I'll create a neural network diagram with an input layer, hidden layer, and output layer.\n\n```json\n" + `{
  "actions": [
    {"type": "create_shape", "shape": "ellipse", "text": "Input Layer", "x": 100, "y": 200, "width": 120, "height": 120},
    {"type": "create_shape", "shape": "ellipse", "text": "Hidden Layer", "x": 350, "y": 200, "width": 120, "height": 120},
    {"type": "create_shape", "shape": "ellipse", "text": "Output Layer", "x": 600, "y": 200, "width": 120, "height": 120},
    {"type": "connect", "from": 0, "to": 1},
    {"type": "connect", "from": 1, "to": 2}
  ]
}` + "\n```\n\nCreated a 3-layer neural network with circular nodes connected by arrows."

const mockDefault = "I'll create a simple diagram with a few connected shapes for you.\n\n```json\n" + `{
  "actions": [
    {"type": "create_shape", "shape": "rectangle", "text": "Component A", "x": 150, "y": 200, "width": 180, "height": 100},
    {"type": "create_shape", "shape": "rectangle", "text": "Component B", "x": 450, "y": 200, "width": 180, "height": 100},
    {"type": "connect", "from": 0, "to": 1}
  ]
}` + "\n```\n\nI've created two connected components for your diagram."

// Mock отвечает заготовками по ключевым словам. Используется без GEMINI_API_KEY.
type Mock struct {
	Delay time.Duration
}

func (m *Mock) Respond(ctx context.Context, _ []Message, prompt string) (*Reply, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	text := mockText(prompt)
	actions, err := parser.ExtractActions(text)
	if err != nil {
		return nil, fmt.Errorf("mock reply: %w", err)
	}
	return &Reply{Text: text, Actions: actions}, nil
}

func mockText(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "flowchart"), strings.Contains(lower, "flow chart"):
		return mockFlowchart
	case strings.Contains(lower, "neural"), strings.Contains(lower, "network"):
		return mockNeural
	default:
		return mockDefault
	}
}
