package assistant

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
	"constellar/internal/generator/tools"
)

// ============================================================
// Fake Gemini backend
// ============================================================

type fakeModels struct {
	responses []*genai.GenerateContentResponse
	err       error
	calls     [][]*genai.Content
	configs   []*genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	f.configs = append(f.configs, config)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(text, genai.RoleModel),
	}}}
}

func callResponse(calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, len(calls))
	for i, call := range calls {
		parts[i] = &genai.Part{FunctionCall: call}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromParts(parts, genai.RoleModel),
	}}}
}

func testRegistry() *tools.Registry {
	return tools.NewRegistry(excalidraw.NewFactory(excalidraw.DefaultTheme(),
		excalidraw.WithRand(rand.New(rand.NewPCG(11, 12)))))
}

// ============================================================
// Gemini
// ============================================================

func TestGemini_Respond_Text(t *testing.T) {
	fake := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse("Sure.\n```json\n{\"actions\": [{\"type\": \"create_text\", \"text\": \"hi\", \"x\": 0, \"y\": 0}]}\n```"),
	}}
	g := newGemini(fake, "", testRegistry(), nil)

	history := []Message{
		{Role: RoleAssistant, Content: "Welcome!"},
		{Role: RoleSystem, Content: "Canvas is empty"},
		{Role: RoleUser, Content: "draw"},
		{Role: RoleAssistant, Content: "done"},
	}
	reply, err := g.Respond(context.Background(), history, "add text")
	require.NoError(t, err)

	assert.True(t, reply.HasActions())
	assert.Empty(t, reply.Elements)
	assert.Len(t, fake.calls, 1)

	contents := fake.calls[0]
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "draw", contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "add text", contents[2].Parts[0].Text)

	config := fake.configs[0]
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, "Canvas is empty")
	require.Len(t, config.Tools, 1)
	assert.Len(t, config.Tools[0].FunctionDeclarations, 9)
}

func TestGemini_Respond_FunctionCalls(t *testing.T) {
	fake := &fakeModels{responses: []*genai.GenerateContentResponse{
		callResponse(
			&genai.FunctionCall{Name: "create_rectangle", Args: map[string]any{"x": 0.0, "y": 0.0, "label": "API"}},
			&genai.FunctionCall{Name: "create_hexagon", Args: map[string]any{}},
			&genai.FunctionCall{Name: "create_flowchart", Args: map[string]any{"title": "T", "steps": []any{"a"}}},
		),
		textResponse("I drew a rectangle and a flowchart."),
	}}
	g := newGemini(fake, "gemini-test", testRegistry(), nil)

	reply, err := g.Respond(context.Background(), nil, "draw things")
	require.NoError(t, err)

	assert.Equal(t, "I drew a rectangle and a flowchart.", reply.Text)
	assert.False(t, reply.HasActions())
	require.Len(t, reply.ToolCalls, 3)
	assert.Equal(t, 2, reply.ToolCalls[0].Elements)
	assert.NotEmpty(t, reply.ToolCalls[1].Error)
	assert.Equal(t, 5, reply.ToolCalls[2].Elements)
	assert.Len(t, reply.Elements, 7)

	require.Len(t, fake.calls, 2)
	second := fake.calls[1]
	require.Len(t, second, 3)
	last := second[2]
	require.Len(t, last.Parts, 3)
	assert.Equal(t, "create_rectangle", last.Parts[0].FunctionResponse.Name)
	assert.Equal(t, true, last.Parts[0].FunctionResponse.Response["success"])
	assert.Equal(t, false, last.Parts[1].FunctionResponse.Response["success"])
}

func TestGemini_Respond_Error(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("quota exceeded")}, "", testRegistry(), nil)

	_, err := g.Respond(context.Background(), nil, "hi")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", testRegistry(), nil)
	assert.Error(t, err)
}

// ============================================================
// Mock
// ============================================================

func TestMock_Respond(t *testing.T) {
	tests := []struct {
		prompt  string
		actions int
		first   string
	}{
		{prompt: "Make me a FLOWCHART", actions: 5, first: "Start"},
		{prompt: "a flow chart please", actions: 5, first: "Start"},
		{prompt: "neural net", actions: 5, first: "Input Layer"},
		{prompt: "network topology", actions: 5, first: "Input Layer"},
		{prompt: "anything", actions: 3, first: "Component A"},
	}

	m := &Mock{}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			reply, err := m.Respond(context.Background(), nil, tt.prompt)
			require.NoError(t, err)
			require.Len(t, reply.Actions, tt.actions)
			assert.Equal(t, tt.first, reply.Actions[0].(map[string]any)["text"])
			assert.NotEmpty(t, reply.Text)
		})
	}
}

func TestMock_Respond_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Mock{Delay: time.Minute}).Respond(ctx, nil, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================
// Prompts
// ============================================================

func TestSummarizeElements(t *testing.T) {
	elements := []models.Element{
		{Type: models.TypeRectangle},
		{Type: models.TypeText},
		{Type: models.TypeRectangle},
		{},
	}

	assert.Equal(t, "  - 2 rectangles\n  - 1 text\n  - 1 unknown", SummarizeElements(elements))
	assert.Equal(t, "  - No elements", SummarizeElements(nil))
}

func TestBuildContextPrompt(t *testing.T) {
	prompt := BuildContextPrompt(PromptContext{
		Title:         "Payments",
		Elements:      []models.Element{{Type: models.TypeArrow}},
		History:       []Message{{Role: RoleUser, Content: "draw a queue"}, {Role: RoleAssistant, Content: "ok"}},
		TotalMessages: 4,
		TotalVersions: 2,
	}, "add a cache")

	assert.Contains(t, prompt, "- Title: Payments")
	assert.Contains(t, prompt, "- Description: No description")
	assert.Contains(t, prompt, "- Total edits: 2")
	assert.Contains(t, prompt, "Current diagram has 1 elements:\n  - 1 arrow")
	assert.Contains(t, prompt, "CONVERSATION HISTORY (last 2 messages):\nUser: draw a queue\nAI: ok")
	assert.True(t, strings.Contains(prompt, "USER'S NEW REQUEST:\nadd a cache"))

	empty := BuildContextPrompt(PromptContext{Title: "x"}, "hi")
	assert.Contains(t, empty, "Canvas is empty - no elements yet")
	assert.Contains(t, empty, "No previous conversation")
}
