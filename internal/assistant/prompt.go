package assistant

import (
	"fmt"
	"strings"

	"constellar/internal/generator/models"
)

// ============================================================
// Prompts
// ============================================================

const SystemPrompt = `You are an AI assistant integrated into Constellar, an AI-enabled whiteboard for engineers. You help users create diagrams on an Excalidraw canvas.

Basic shape tools: create_rectangle, create_ellipse, create_diamond, create_arrow, create_line, create_text_standalone.
Diagram tools:
- create_flowchart: simple vertical flowcharts with a title and steps
- create_advanced_flowchart: flowcharts with decision nodes and yes/no branches
- create_system_architecture: layered architectures with client, server, database, api, cache, queue, storage and service components

Prefer the tools. When you cannot call a tool, answer with a short explanation followed by a json code block:

` + "```json" + `
{"actions": [
  {"type": "create_shape", "shape": "rectangle", "text": "Input", "x": 100, "y": 200, "width": 150, "height": 80},
  {"type": "create_shape", "shape": "rectangle", "text": "Output", "x": 350, "y": 200, "width": 150, "height": 80},
  {"type": "connect", "from": 0, "to": 1}
]}
` + "```" + `

Action types:
- create_shape: shape (rectangle, ellipse, diamond), x, y; optional text, width, height, fillStyle, strokeColor, backgroundColor
- create_text: text, x, y; optional fontSize
- connect: from, to (indexes of shapes created earlier in the same block); optional label
- create_arrow: x, y, endX, endY; optional label

Use the purple palette: #8b5cf6 primary, #a78bfa secondary, #c4b5fd light.
When the user asks a general question, answer conversationally without JSON.`

// PromptContext собирает то, что ассистент знает о проекте.
type PromptContext struct {
	Title         string
	Description   string
	Elements      []models.Element
	History       []Message
	TotalMessages int
	TotalVersions int
}

// BuildContextPrompt собирает полный промпт: проект, холст, история и новый запрос.
func BuildContextPrompt(pc PromptContext, request string) string {
	var history strings.Builder
	if len(pc.History) == 0 {
		history.WriteString("No previous conversation")
	}
	for i, m := range pc.History {
		if i > 0 {
			history.WriteString("\n")
		}
		speaker := "User"
		if m.Role == RoleAssistant {
			speaker = "AI"
		}
		fmt.Fprintf(&history, "%s: %s", speaker, m.Content)
	}

	description := pc.Description
	if description == "" {
		description = "No description"
	}

	return fmt.Sprintf(`You are an AI assistant helping to create and modify diagrams in Excalidraw format.

PROJECT INFORMATION:
- Title: %s
- Description: %s
- Total edits: %d
- Total conversations: %d

CURRENT CANVAS STATE:
%s

CONVERSATION HISTORY (last %d messages):
%s

USER'S NEW REQUEST:
%s

INSTRUCTIONS:
- Consider the full conversation history above
- Be aware of the current canvas state
- Place new elements so they do not overlap existing ones
- Maintain consistency with previous decisions in the conversation`,
		pc.Title, description, pc.TotalVersions, pc.TotalMessages,
		CanvasSummary(pc.Elements), len(pc.History), history.String(), request)
}

// CanvasSummary описывает холст для системного сообщения.
func CanvasSummary(elements []models.Element) string {
	if len(elements) == 0 {
		return "Canvas is empty - no elements yet"
	}
	return fmt.Sprintf("Current diagram has %d elements:\n%s", len(elements), SummarizeElements(elements))
}

// SummarizeElements считает элементы по типам в порядке первого появления.
func SummarizeElements(elements []models.Element) string {
	counts := make(map[models.ElementType]int)
	var order []models.ElementType
	for _, e := range elements {
		kind := e.Type
		if kind == "" {
			kind = "unknown"
		}
		if counts[kind] == 0 {
			order = append(order, kind)
		}
		counts[kind]++
	}

	if len(order) == 0 {
		return "  - No elements"
	}

	lines := make([]string, 0, len(order))
	for _, kind := range order {
		n := counts[kind]
		plural := ""
		if n > 1 {
			plural = "s"
		}
		lines = append(lines, fmt.Sprintf("  - %d %s%s", n, kind, plural))
	}
	return strings.Join(lines, "\n")
}
