package assistant

import (
	"context"

	"constellar/internal/generator/models"
	"constellar/internal/generator/tools"
)

// ============================================================
// Conversation types
// ============================================================

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolCall описывает один вызов инструмента, сделанный моделью.
type ToolCall struct {
	Name     string     `json:"name"`
	Args     tools.Args `json:"args"`
	Elements int        `json:"elements"`
	Error    string     `json:"error,omitempty"`
}

// Reply содержит ответ ассистента: текст, извлечённые действия и элементы от инструментов.
type Reply struct {
	Text      string           `json:"text"`
	Actions   []any            `json:"actions,omitempty"`
	ToolCalls []ToolCall       `json:"toolCalls,omitempty"`
	Elements  []models.Element `json:"elements,omitempty"`
}

func (r *Reply) HasActions() bool {
	return len(r.Actions) > 0
}

// Client отвечает на запрос пользователя с учётом истории.
// Сообщения с ролью system в истории дополняют системный промпт.
type Client interface {
	Respond(ctx context.Context, history []Message, prompt string) (*Reply, error)
}
