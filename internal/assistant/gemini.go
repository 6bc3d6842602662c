package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"constellar/internal/generator/parser"
	"constellar/internal/generator/tools"
)

// ============================================================
// Gemini client
// ============================================================

const (
	DefaultModel    = "gemini-2.0-flash"
	temperature     = 0.7
	maxOutputTokens = 2048
)

// contentGenerator повторяет часть *genai.Models, которой пользуется Gemini.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini ходит в Gemini API с инструментами из реестра в виде function declarations.
// Вызовы функций исполняются локально, результаты отправляются обратно за финальным текстом.
type Gemini struct {
	models   contentGenerator
	model    string
	registry *tools.Registry
	logger   *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, registry *tools.Registry, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGemini(client.Models, model, registry, logger), nil
}

func newGemini(models contentGenerator, model string, registry *tools.Registry, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		models:   models,
		model:    model,
		registry: registry,
		logger:   logger.Named("gemini"),
	}
}

func (g *Gemini) Respond(ctx context.Context, history []Message, prompt string) (*Reply, error) {
	contents, system := g.contents(history, prompt)
	config := g.config(system)

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to get response from Gemini: %w", err)
	}

	reply := &Reply{}
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		reply.Text = resp.Text()
		g.extract(reply)
		return reply, nil
	}

	responses := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		responses = append(responses, g.call(reply, call))
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		contents = append(contents, resp.Candidates[0].Content)
	}
	contents = append(contents, genai.NewContentFromParts(responses, genai.RoleUser))

	final, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to get final response from Gemini: %w", err)
	}
	reply.Text = final.Text()
	g.extract(reply)

	g.logger.Info("tool calls executed",
		zap.Int("calls", len(calls)),
		zap.Int("elements", len(reply.Elements)),
	)
	return reply, nil
}

// call исполняет вызов функции через реестр. Ошибка инструмента не прерывает ответ.
func (g *Gemini) call(reply *Reply, call *genai.FunctionCall) *genai.Part {
	record := ToolCall{Name: call.Name, Args: tools.Args(call.Args)}

	elements, err := g.registry.Run(call.Name, record.Args)
	if err != nil {
		g.logger.Warn("tool call failed", zap.String("tool", call.Name), zap.Error(err))
		record.Error = err.Error()
		reply.ToolCalls = append(reply.ToolCalls, record)
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	record.Elements = len(elements)
	reply.ToolCalls = append(reply.ToolCalls, record)
	reply.Elements = append(reply.Elements, elements...)
	return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
		"success":  true,
		"elements": len(elements),
	})
}

func (g *Gemini) extract(reply *Reply) {
	actions, err := parser.ExtractActions(reply.Text)
	if err != nil {
		g.logger.Warn("failed to parse actions from response", zap.Error(err))
		return
	}
	reply.Actions = actions
}

// contents переводит историю в формат Gemini. Системные сообщения уходят в system instruction,
// ведущие сообщения модели отбрасываются: история Gemini должна начинаться с user.
func (g *Gemini) contents(history []Message, prompt string) ([]*genai.Content, string) {
	system := []string{SystemPrompt}
	contents := make([]*genai.Content, 0, len(history)+1)

	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			if len(contents) == 0 {
				continue
			}
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	return contents, strings.Join(system, "\n\n")
}

func (g *Gemini) config(system string) *genai.GenerateContentConfig {
	registered := g.registry.Tools()
	declarations := make([]*genai.FunctionDeclaration, 0, len(registered))
	for _, t := range registered {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema(),
		})
	}

	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxOutputTokens,
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations}},
	}
}
