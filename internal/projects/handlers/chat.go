package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"constellar/internal/assistant"
	"constellar/internal/common/httperr"
	genmodels "constellar/internal/generator/models"
	"constellar/internal/projects/models"
)

// ============================================================
// AI chat
// ============================================================

const versionTitleRunes = 50

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

type chatResponse struct {
	Message   *models.Message      `json:"message"`
	Elements  []genmodels.Element  `json:"elements"`
	ToolCalls []assistant.ToolCall `json:"tool_calls,omitempty"`
	Project   *models.Project      `json:"project"`
	Version   *models.Version      `json:"version,omitempty"`
}

type chatMetadata struct {
	ElementsCreated int                  `json:"elements_created"`
	Actions         int                  `json:"actions"`
	ToolCalls       []assistant.ToolCall `json:"tool_calls,omitempty"`
}

// Chat сохраняет сообщение пользователя, спрашивает ассистента с историей проекта,
// сливает созданные элементы на холст и сохраняет ответ. Если холст изменился,
// сохраняется снимок версии.
func (h *ProjectsHandler) Chat(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	var req chatRequest
	if err := h.bind(c, &req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	scene, err := project.Scene()
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	ctx := c.Context()
	start := time.Now()

	recent, err := h.repo.ListMessages(ctx, project.ID, chatHistoryMessages)
	if err != nil {
		return h.internal(c, "list messages", err)
	}
	if _, err := h.repo.CreateMessage(ctx, project.ID, models.RoleUser, req.Message, nil); err != nil {
		return h.internal(c, "store user message", err)
	}

	conversation := append([]assistant.Message{{
		Role:    assistant.RoleSystem,
		Content: projectSummary(project, scene.Live()),
	}}, history(recent)...)

	reply, err := h.assistant.Respond(ctx, conversation, req.Message)
	if err != nil {
		h.logger.Error("assistant failed", zap.String("project_id", project.ID), zap.Error(err))
		return httperr.BadGateway(c, "assistant unavailable")
	}

	created := make([]genmodels.Element, 0, len(reply.Elements))
	if len(reply.Elements) > 0 {
		scene.UpdateScene(append(scene.SceneElements(), reply.Elements...))
		created = append(created, reply.Elements...)
	}
	if reply.HasActions() {
		created = append(created, h.adapter.Apply(reply.Actions, scene)...)
	}

	metadata, err := json.Marshal(chatMetadata{
		ElementsCreated: len(created),
		Actions:         len(reply.Actions),
		ToolCalls:       reply.ToolCalls,
	})
	if err != nil {
		return h.internal(c, "encode metadata", err)
	}

	message, err := h.repo.CreateMessage(ctx, project.ID, models.RoleAssistant, reply.Text, metadata)
	if err != nil {
		return h.internal(c, "store assistant message", err)
	}

	resp := chatResponse{
		Message:   message,
		Elements:  created,
		ToolCalls: reply.ToolCalls,
		Project:   project,
	}

	if len(created) > 0 {
		canvas, err := json.Marshal(scene)
		if err != nil {
			return h.internal(c, "encode canvas", err)
		}

		resp.Project, err = h.repo.UpdateProject(ctx, project.ID, models.ProjectUpdate{CanvasData: canvas})
		if err != nil {
			return h.storeError(c, "save canvas", err)
		}

		description := versionDescription(req.Message)
		resp.Version, err = h.repo.CreateVersion(ctx, project.ID, canvas, &description)
		if err != nil {
			return h.internal(c, "create version", err)
		}
	}

	h.logger.Info("chat handled",
		zap.String("project_id", project.ID),
		zap.Int("elements", len(created)),
		zap.Int("tool_calls", len(reply.ToolCalls)),
		zap.Duration("took", time.Since(start)),
	)
	return c.JSON(resp)
}

func projectSummary(project *models.Project, elements []genmodels.Element) string {
	summary := fmt.Sprintf("Project: %s", project.Title)
	if project.Description != nil && *project.Description != "" {
		summary += "\nDescription: " + *project.Description
	}
	return summary + "\n" + assistant.CanvasSummary(elements)
}

func versionDescription(message string) string {
	runes := []rune(message)
	if len(runes) > versionTitleRunes {
		runes = runes[:versionTitleRunes]
	}
	return "AI update: " + string(runes) + "..."
}
